package directory

import (
	"crypto/subtle"
	"fmt"
	"sort"

	"github.com/pershin-daniil/MeetBot/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// Directory is the static set of users known to the bot. It is built once at
// startup and never changes afterwards.
type Directory struct {
	users map[string]models.User
	names []string
}

func New(users []models.User) (*Directory, error) {
	d := Directory{
		users: make(map[string]models.User, len(users)),
		names: make([]string, 0, len(users)),
	}
	for _, u := range users {
		if u.Name == "" {
			return nil, fmt.Errorf("user without a name")
		}
		if !u.Role.Valid() {
			return nil, fmt.Errorf("user %s has unknown role %q", u.Name, u.Role)
		}
		if u.Password == "" && u.PasswordHash == "" {
			return nil, fmt.Errorf("user %s has no password", u.Name)
		}
		if _, ok := d.users[u.Name]; ok {
			return nil, fmt.Errorf("duplicate user %s", u.Name)
		}
		d.users[u.Name] = u
		d.names = append(d.names, u.Name)
	}
	return &d, nil
}

// Names lists users in configuration order.
func (d *Directory) Names() []string {
	return append([]string(nil), d.names...)
}

// Others lists every user except name, sorted alphabetically.
func (d *Directory) Others(name string) []string {
	others := make([]string, 0, len(d.names))
	for _, n := range d.names {
		if n != name {
			others = append(others, n)
		}
	}
	sort.Strings(others)
	return others
}

func (d *Directory) Lookup(name string) (models.User, bool) {
	u, ok := d.users[name]
	return u, ok
}

func (d *Directory) IsCreator(name string) bool {
	u, ok := d.users[name]
	return ok && u.IsCreator()
}

func (d *Directory) Authenticate(name, password string) (models.User, error) {
	u, ok := d.users[name]
	if !ok {
		return models.User{}, models.ErrInvalidCredentials
	}
	if u.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
			return models.User{}, models.ErrInvalidCredentials
		}
		return u, nil
	}
	if subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
		return models.User{}, models.ErrInvalidCredentials
	}
	return u, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("err hashing password: %w", err)
	}
	return string(hash), nil
}
