package user

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-user-cache/internal/apperr"
)

func TestCreateRequest_Validate(t *testing.T) {
	valid := CreateRequest{Email: "a@b.com", Password: "p", Name: "A", PhoneNumber: "010-1234-5678"}

	tests := []struct {
		name       string
		mutate     func(r *CreateRequest)
		wantFields []string
		wantCode   string
	}{
		{name: "valid", mutate: func(r *CreateRequest) {}},
		{name: "three digit prefix", mutate: func(r *CreateRequest) { r.PhoneNumber = "031-555-0101" }},
		{
			name:       "bad email",
			mutate:     func(r *CreateRequest) { r.Email = "not-an-email" },
			wantFields: []string{"email"},
			wantCode:   apperr.CodeEmailInvalid,
		},
		{
			name:       "all missing",
			mutate:     func(r *CreateRequest) { *r = CreateRequest{} },
			wantFields: []string{"email", "name", "password", "phoneNumber"},
			wantCode:   apperr.CodeBadRequest,
		},
		{
			name:       "name too long",
			mutate:     func(r *CreateRequest) { r.Name = strings.Repeat("가", 51) },
			wantFields: []string{"name"},
			wantCode:   apperr.CodeBadRequest,
		},
		{
			name:       "bad phone",
			mutate:     func(r *CreateRequest) { r.PhoneNumber = "0101-234-5678" },
			wantFields: []string{"phoneNumber"},
			wantCode:   apperr.CodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			err := req.Validate()
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("expected no error but got: %v", err)
				}
				return
			}

			appErr, ok := apperr.As(err)
			if !ok {
				t.Fatalf("expected *apperr.Error but got: %v", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, appErr.Code)
			}
			if len(appErr.Fields) != len(tt.wantFields) {
				t.Fatalf("expected fields %v, got %+v", tt.wantFields, appErr.Fields)
			}
			for i, field := range tt.wantFields {
				if appErr.Fields[i].Field != field {
					t.Errorf("expected field %s at %d, got %s", field, i, appErr.Fields[i].Field)
				}
			}
		})
	}
}

func TestCreateRequest_PasswordNeverEchoed(t *testing.T) {
	req := CreateRequest{Email: "a@b.com", Password: strings.Repeat("x", 51), Name: "A", PhoneNumber: "010-1234-5678"}

	appErr, ok := apperr.As(req.Validate())
	if !ok || len(appErr.Fields) != 1 {
		t.Fatalf("expected a single password error, got %v", appErr)
	}
	if appErr.Fields[0].RejectedValue != nil {
		t.Errorf("expected password value to be withheld, got %v", appErr.Fields[0].RejectedValue)
	}
}

func TestUpdateRequest_Validate(t *testing.T) {
	blank := ""
	long := strings.Repeat("n", 51)
	phone := "010-1234-5678"
	badPhone := "phone"

	tests := []struct {
		name    string
		req     UpdateRequest
		wantErr bool
	}{
		{name: "empty patch", req: UpdateRequest{}},
		{name: "phone only", req: UpdateRequest{PhoneNumber: &phone}},
		{name: "blank name", req: UpdateRequest{Name: &blank}, wantErr: true},
		{name: "long name", req: UpdateRequest{Name: &long}, wantErr: true},
		{name: "bad phone", req: UpdateRequest{PhoneNumber: &badPhone}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if !(UpdateRequest{}).Empty() {
		t.Error("expected zero value patch to be empty")
	}
}

func TestResponse_JSON(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	resp := Response{
		ID:          1,
		Email:       "a@b.com",
		Name:        "A",
		PhoneNumber: "010-1234-5678",
		Status:      StatusActive,
		CreatedAt:   time.Date(2025, 3, 1, 18, 30, 0, 123456789, loc),
		UpdatedAt:   time.Date(2025, 3, 1, 18, 30, 0, 123456789, loc),
	}

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"id":1,"email":"a@b.com","name":"A","phoneNumber":"010-1234-5678","status":"ACTIVE",` +
		`"createdAt":"2025-03-01T09:30:00.123Z","updatedAt":"2025-03-01T09:30:00.123Z"}`
	if string(data) != want {
		t.Errorf("expected %s\n got %s", want, data)
	}
	if strings.Contains(string(data), "password") {
		t.Error("expected password to be absent")
	}

	var decoded Response
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.CreatedAt.Equal(resp.CreatedAt.Truncate(time.Millisecond)) {
		t.Errorf("expected createdAt to survive at millisecond precision, got %v", decoded.CreatedAt)
	}
}

func TestUser_StatusTransitions(t *testing.T) {
	u := &User{Status: StatusActive}

	u.Deactivate()
	if u.IsActive() || u.Status != StatusInactive {
		t.Errorf("expected INACTIVE, got %s", u.Status)
	}
	u.Activate()
	if !u.IsActive() {
		t.Errorf("expected ACTIVE, got %s", u.Status)
	}
	if Status("DELETED").Valid() {
		t.Error("expected unknown status to be invalid")
	}
}
