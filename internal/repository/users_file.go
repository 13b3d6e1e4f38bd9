package repository

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/prohmpiriya/devops-api/internal/domain"
)

type usersFile struct {
	Users []struct {
		ID       int64  `yaml:"id"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Role     string `yaml:"role"`
	} `yaml:"users"`
}

// LoadUsersFile reads seed accounts from a YAML file of the form
//
//	users:
//	  - id: 1
//	    username: admin
//	    password: admin123
//	    role: admin
func LoadUsersFile(path string) ([]*domain.User, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open users file: %w", err)
	}
	defer file.Close()

	var doc usersFile
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode users file: %w", err)
	}

	users := make([]*domain.User, 0, len(doc.Users))
	seen := make(map[int64]struct{}, len(doc.Users))
	for i, u := range doc.Users {
		role := domain.Role(u.Role)
		_, dup := seen[u.ID]
		switch {
		case u.ID <= 0:
			return nil, fmt.Errorf("users[%d]: id must be positive", i)
		case dup:
			return nil, fmt.Errorf("users[%d]: duplicate id %d", i, u.ID)
		case u.Username == "" || u.Password == "":
			return nil, fmt.Errorf("users[%d]: username and password are required", i)
		case !role.Valid():
			return nil, fmt.Errorf("users[%d]: unknown role %q", i, u.Role)
		}
		seen[u.ID] = struct{}{}
		users = append(users, &domain.User{ID: u.ID, Username: u.Username, Secret: u.Password, Role: role})
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("users file %s defines no users", path)
	}
	return users, nil
}
