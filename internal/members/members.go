// Package members holds the application's members and looks them up by
// login id. It is the credential lookup the login flow delegates to.
package members

import (
	"errors"
	"fmt"
	"io/ioutil"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrInvalidMember is returned when saving a member without a login id or password
	ErrInvalidMember = errors.New("error: invalid member")

	// ErrDuplicateLoginID is returned when saving a member whose login id is taken
	ErrDuplicateLoginID = errors.New("error: login id already in use")
)

// Member ...
type Member struct {
	ID       int64  `yaml:"-"`
	LoginID  string `yaml:"login_id"`
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

func (m *Member) String() string {
	return fmt.Sprintf("Member(id=%d, loginId=%s, name=%s)", m.ID, m.LoginID, m.Name)
}

// Repository is an in-memory member repository
type Repository struct {
	sync.RWMutex

	sequence int64
	members  map[int64]*Member
}

// NewRepository ...
func NewRepository() *Repository {
	return &Repository{members: make(map[int64]*Member)}
}

// Save assigns the member an id and stores it
func (r *Repository) Save(m *Member) (*Member, error) {
	m.LoginID = strings.TrimSpace(m.LoginID)
	if m.LoginID == "" || m.Password == "" {
		return nil, ErrInvalidMember
	}

	r.Lock()
	defer r.Unlock()

	for _, existing := range r.members {
		if existing.LoginID == m.LoginID {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLoginID, m.LoginID)
		}
	}

	r.sequence++
	m.ID = r.sequence
	r.members[m.ID] = m

	log.Infof("saved member %s", m)

	return m, nil
}

// FindByID ...
func (r *Repository) FindByID(id int64) (*Member, bool) {
	r.RLock()
	defer r.RUnlock()

	m, ok := r.members[id]
	return m, ok
}

// FindByLoginID ...
func (r *Repository) FindByLoginID(loginID string) (*Member, bool) {
	r.RLock()
	defer r.RUnlock()

	for _, m := range r.members {
		if m.LoginID == loginID {
			return m, true
		}
	}
	return nil, false
}

// FindAll returns all members ordered by id
func (r *Repository) FindAll() []*Member {
	r.RLock()
	defer r.RUnlock()

	all := make([]*Member, 0, len(r.members))
	for _, m := range r.members {
		all = append(all, m)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return all
}

// Len ...
func (r *Repository) Len() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.members)
}

// Seed is the on-disk format of a member seed file
type Seed struct {
	Members []*Member `yaml:"members"`
}

// LoadSeed reads a YAML seed file and saves every member in it
func (r *Repository) LoadSeed(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}

	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("error parsing member seed %s: %w", path, err)
	}

	for _, m := range seed.Members {
		if _, err := r.Save(m); err != nil {
			return err
		}
	}

	log.Infof("loaded %d members from %s", len(seed.Members), path)

	return nil
}
