package room

import (
	"crypto/rand"
	"math/big"
	"sync"

	"arenaserver/logging"
)

// Store owns every live room, keyed by its 5-digit room code, and runs each
// room's actor goroutine. Grounded on garbhj-motion-demo's room/manager.go
// Manager, adapted from that source's 6-character alphanumeric codes to
// this spec's 5-digit numeric codes with a non-zero leading digit.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room

	router  *logging.Router
	emitter Emitter
}

func NewStore(router *logging.Router, emitter Emitter) *Store {
	return &Store{rooms: make(map[string]*Room), router: router, emitter: emitter}
}

// Create allocates a new room with no map assigned yet — spec §4.4 requires
// the map to be chosen randomly at startGame, not at room creation — starts
// its actor goroutine, and returns it.
func (s *Store) Create() (*Room, error) {
	s.mu.Lock()
	code, err := s.generateCodeLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	r := newRoom(code, s.router, s.emitter)
	s.rooms[code] = r
	s.mu.Unlock()

	go r.Run(func() { s.remove(code) })
	return r, nil
}

func (s *Store) Get(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	return r, ok
}

func (s *Store) remove(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

// Count returns the number of live rooms, for diagnostics.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rooms)
}

const codeDigits = 5

func (s *Store) generateCodeLocked() (string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		if _, exists := s.rooms[code]; !exists {
			return code, nil
		}
	}
	return "", errRoomCodeExhausted
}

func randomCode() (string, error) {
	first, err := rand.Int(rand.Reader, big.NewInt(9))
	if err != nil {
		return "", err
	}
	digits := make([]byte, codeDigits)
	digits[0] = byte('1' + first.Int64())
	for i := 1; i < codeDigits; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + d.Int64())
	}
	return string(digits), nil
}
