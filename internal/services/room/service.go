package room

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rahul01879/chat-app/internal/crypto"
	"github.com/rahul01879/chat-app/internal/domain"
)

const (
	// roomIDLength is the length of generated room IDs.
	roomIDLength = 8

	// roomIDAlphabet is the generated-ID character set. Parsed IDs may be
	// longer but draw from the same characters.
	roomIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// roomIDPattern accepts normalized room IDs.
var roomIDPattern = regexp.MustCompile(`^[A-Z0-9]{1,64}$`)

var (
	// ErrKeyRequired is returned when a room ID arrives without a key.
	// Joining by bare ID would silently put the user in a room nobody
	// else can read, so it is refused outright.
	ErrKeyRequired = errors.New("room: joining needs the key from the locator, not just the room id")

	// ErrBadLocator is returned when a locator cannot be parsed.
	ErrBadLocator = errors.New("room: unreadable locator")

	// ErrBadRoomID is returned for IDs outside the allowed alphabet.
	ErrBadRoomID = errors.New("room: room id must be letters and digits")

	// ErrNoRecovery is returned when nothing usable is cached for a room.
	ErrNoRecovery = errors.New("room: no recoverable session for that room")
)

// Service owns room identity: the ID, the symmetric key, its fingerprint
// and the shareable locator that carries both. Keys pass through the
// recovery cache in portable form so a dropped connection can be rejoined
// without the locator.
type Service struct {
	origin string
	cache  domain.SessionCache
}

// New returns a room service that mints locators against origin.
func New(origin string, cache domain.SessionCache) *Service {
	return &Service{origin: strings.TrimRight(origin, "/"), cache: cache}
}

// Create generates a fresh key for a new room. An empty requestedID gets
// a random 8-character ID.
func (s *Service) Create(username, requestedID string) (*domain.Session, error) {
	roomID := NormalizeRoomID(requestedID)
	if roomID == "" {
		var err error
		roomID, err = generateRoomID()
		if err != nil {
			return nil, err
		}
	} else if !roomIDPattern.MatchString(roomID) {
		return nil, fmt.Errorf("%w: %q", ErrBadRoomID, requestedID)
	}
	key, err := crypto.Generate()
	if err != nil {
		return nil, err
	}
	return s.establish(username, roomID, key)
}

// Join enters an existing room. The locator argument accepts a full
// shareable link, a bare fragment or a plain room ID; in the last case
// portable must carry the exported key. An explicit portable argument
// wins over a key embedded in the locator.
func (s *Service) Join(username, locator, portable string) (*domain.Session, error) {
	trimmed := strings.TrimSpace(locator)
	var roomID string
	if strings.ContainsAny(trimmed, "#=&/") {
		id, key, err := ParseLocator(trimmed)
		if err != nil && !errors.Is(err, ErrKeyRequired) {
			return nil, err
		}
		roomID = id
		if portable == "" {
			portable = key
		}
	} else {
		roomID = NormalizeRoomID(trimmed)
	}
	if roomID == "" {
		return nil, ErrBadLocator
	}
	if !roomIDPattern.MatchString(roomID) {
		return nil, fmt.Errorf("%w: %q", ErrBadRoomID, roomID)
	}
	if portable == "" {
		return nil, ErrKeyRequired
	}
	key, err := crypto.Import(portable)
	if err != nil {
		return nil, err
	}
	return s.establish(username, roomID, key)
}

// Recover rebuilds a session from the recovery cache alone, with no
// network involved. A cache entry that fails import or no longer matches
// its fingerprint is cleared on the spot so poisoned state cannot linger.
func (s *Service) Recover(username, roomID string) (*domain.Session, error) {
	roomID = NormalizeRoomID(roomID)
	entry, ok := s.cache.Lookup(roomID)
	if !ok {
		return nil, ErrNoRecovery
	}
	key, err := crypto.Import(entry.Portable)
	if err != nil {
		s.cache.Forget(roomID)
		return nil, fmt.Errorf("%w: cached key unusable", ErrNoRecovery)
	}
	fp, err := crypto.Fingerprint(key)
	if err != nil || fp != entry.Fingerprint {
		key.Destroy()
		s.cache.Forget(roomID)
		return nil, fmt.Errorf("%w: cached key does not match its fingerprint", ErrNoRecovery)
	}
	return s.establish(username, roomID, key)
}

// Leave destroys the session key. The recovery entry stays so the room
// can be re-entered with Recover.
func (s *Service) Leave(sess *domain.Session) {
	if sess == nil {
		return
	}
	sess.Key.Destroy()
}

// Destroy tears the session down completely: key destroyed and every
// recovery entry wiped. Safe to call repeatedly or with nil.
func (s *Service) Destroy(sess *domain.Session) {
	s.Leave(sess)
	s.cache.Clear()
}

// establish assembles the session and refreshes the recovery cache. The
// key handle is owned by the returned session.
func (s *Service) establish(username, roomID string, key *crypto.Key) (*domain.Session, error) {
	portable, err := crypto.Export(key)
	if err != nil {
		key.Destroy()
		return nil, err
	}
	fp, err := crypto.Fingerprint(key)
	if err != nil {
		key.Destroy()
		return nil, err
	}
	now := time.Now()
	s.cache.Remember(domain.RecoveryEntry{
		RoomID:      roomID,
		Portable:    portable,
		Fingerprint: fp,
		StoredAt:    now,
	})
	return &domain.Session{
		RoomID:      roomID,
		Key:         key,
		Fingerprint: fp,
		Locator:     s.origin + "/#room=" + roomID + "&key=" + url.QueryEscape(portable),
		Username:    username,
		CreatedAt:   now,
	}, nil
}

// NormalizeRoomID folds a room ID to its canonical uppercase form.
func NormalizeRoomID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}

// ParseLocator splits a locator into room ID and percent-decoded key. It
// accepts the full link form, the bare fragment with or without "#", and
// returns ErrKeyRequired when only a room is present.
func ParseLocator(locator string) (roomID, portable string, err error) {
	s := strings.TrimSpace(locator)
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[i+1:]
	}
	vals, err := url.ParseQuery(s)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrBadLocator, err)
	}
	roomID = NormalizeRoomID(vals.Get("room"))
	if roomID == "" {
		return "", "", ErrBadLocator
	}
	portable = vals.Get("key")
	if portable == "" {
		return roomID, "", ErrKeyRequired
	}
	return roomID, portable, nil
}

// generateRoomID draws an 8-character uppercase token from the package
// CSPRNG.
func generateRoomID() (string, error) {
	buf := make([]byte, roomIDLength)
	if _, err := io.ReadFull(crypto.RandReader, buf); err != nil {
		return "", fmt.Errorf("room: generate id: %w", err)
	}
	id := make([]byte, roomIDLength)
	for i, b := range buf {
		id[i] = roomIDAlphabet[int(b)%len(roomIDAlphabet)]
	}
	return string(id), nil
}

// Compile-time assertion that Service implements domain.RoomService.
var _ domain.RoomService = (*Service)(nil)
