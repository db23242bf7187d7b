package contacts

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Contact mirrors the wire format of the remote contact list.
type Contact struct {
	PhoneNumber string `json:"phoneNumber"`
	Name        string `json:"name"`
}

var (
	ErrNameRequired    = errors.New("name and number are required")
	ErrInvalidNumber   = errors.New("number must start with country code (+)")
	ErrDuplicateNumber = errors.New("this phone number already exists in your contacts")
	ErrNotFound        = errors.New("contact not found")
)

// API is the slice of the remote backend the store needs. The backend has no
// partial-update endpoint: every mutation submits the full desired list.
type API interface {
	Contacts() ([]Contact, error)
	RegisterContacts(contacts []Contact) error
}

// Store keeps a local mirror of the remote contact list and pushes the full
// list back on every mutation.
type Store struct {
	mu   sync.RWMutex
	api  API
	list []Contact
}

func NewStore(api API) *Store {
	return &Store{api: api}
}

// Load replaces the mirror with the remote list.
func (s *Store) Load() error {
	list, err := s.api.Contacts()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
	return nil
}

// All returns a copy of the mirrored list.
func (s *Store) All() []Contact {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Contact, len(s.list))
	copy(out, s.list)
	return out
}

func (s *Store) Get(number string) (Contact, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.list {
		if c.PhoneNumber == number {
			return c, true
		}
	}
	return Contact{}, false
}

// Add validates the new contact, then submits the full resulting list.
func (s *Store) Add(c Contact) error {
	if err := Validate(c); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.list {
		if existing.PhoneNumber == c.PhoneNumber {
			return ErrDuplicateNumber
		}
	}

	next := append(append([]Contact{}, s.list...), c)
	if err := s.api.RegisterContacts(next); err != nil {
		return err
	}
	s.list = next
	return nil
}

// Rename updates a contact's name, keyed by phone number.
func (s *Store) Rename(number, name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]Contact, len(s.list))
	copy(next, s.list)

	found := false
	for i := range next {
		if next[i].PhoneNumber == number {
			next[i].Name = name
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}

	if err := s.api.RegisterContacts(next); err != nil {
		return err
	}
	s.list = next
	return nil
}

// Delete removes the given numbers by submitting the remaining set.
func (s *Store) Delete(numbers []string) error {
	drop := make(map[string]bool, len(numbers))
	for _, n := range numbers {
		drop[n] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var remaining []Contact
	for _, c := range s.list {
		if !drop[c.PhoneNumber] {
			remaining = append(remaining, c)
		}
	}
	if remaining == nil {
		remaining = []Contact{}
	}

	if err := s.api.RegisterContacts(remaining); err != nil {
		return err
	}
	s.list = remaining
	return nil
}

// Validate checks the invariants enforced before any submission.
func Validate(c Contact) error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.PhoneNumber) == "" {
		return ErrNameRequired
	}
	if !strings.HasPrefix(c.PhoneNumber, "+") {
		return fmt.Errorf("%s: %w", c.PhoneNumber, ErrInvalidNumber)
	}
	return nil
}
