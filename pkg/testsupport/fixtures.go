package testsupport

import (
	"context"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-user-cache/internal/user"
)

//go:embed testdata/users.json
var seedUsers []byte

// LoadFixture loads test data from a fixture file.
// The path is relative to the test package directory.
func LoadFixture(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to load fixture from %s: %v", path, err)
	}

	return data
}

// LoadFixtureJSON loads JSON test data from a fixture file and unmarshals it.
func LoadFixtureJSON(t *testing.T, path string, dest any) {
	t.Helper()

	data := LoadFixture(t, path)
	if err := json.Unmarshal(data, dest); err != nil {
		t.Fatalf("failed to unmarshal JSON fixture from %s: %v", path, err)
	}
}

// FixturePath constructs a path to a fixture file relative to the testdata directory.
func FixturePath(filename string) string {
	return filepath.Join("testdata", filename)
}

// SeedUsers returns the shared set of valid create requests.
func SeedUsers(t *testing.T) []user.CreateRequest {
	t.Helper()

	var reqs []user.CreateRequest
	if err := json.Unmarshal(seedUsers, &reqs); err != nil {
		t.Fatalf("failed to unmarshal seed users: %v", err)
	}
	return reqs
}

// SeedStore creates every seed user through s, in file order.
func SeedStore(t *testing.T, s user.Store) []user.User {
	t.Helper()

	reqs := SeedUsers(t)
	out := make([]user.User, 0, len(reqs))
	for _, req := range reqs {
		u := &user.User{
			Email:       req.Email,
			Password:    req.Password,
			Name:        req.Name,
			PhoneNumber: req.PhoneNumber,
			Status:      user.StatusActive,
		}
		if err := s.Create(context.Background(), u); err != nil {
			t.Fatalf("failed to seed user %s: %v", req.Email, err)
		}
		out = append(out, *u)
	}
	return out
}
