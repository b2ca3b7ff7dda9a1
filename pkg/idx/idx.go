package idx

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind names the document family an ID belongs to. It is rendered as a short
// prefix so IDs are self-describing in logs and never collide with phone
// digits when compared as identity values.
type Kind string

const (
	KindEvent        Kind = "evt"
	KindNotification Kind = "ntf"
	KindAccount      Kind = "acc"
	KindLink         Kind = "lnk"
	KindRequest      Kind = "req"
)

type ID string

// Zero represents the zero value ID, don't use this unless its a placeholder.
const Zero ID = ""

const sep = "_"

// ErrInvalid reports a malformed ID string.
var ErrInvalid = errors.New("idx: invalid id")

var (
	globalOnce sync.Once
	global     *generator
)

// generator hands out ULIDs from a monotonic source so IDs minted in the same
// millisecond still sort in creation order.
type generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func (g *generator) newAt(t time.Time) ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return ulid.MustNew(ulid.Timestamp(t), g.entropy)
}

func initGlobal() {
	global = &generator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// New returns a new lexicographically sortable ID of the given kind using the
// current time in UTC.
func New(kind Kind) ID {
	return NewAt(kind, time.Now().UTC())
}

// NewAt generates an ID at the provided time, useful for tests and
// time-bounded cursors.
func NewAt(kind Kind, t time.Time) ID {
	globalOnce.Do(initGlobal)
	u := global.newAt(t.UTC())
	return ID(string(kind) + sep + u.String())
}

// Generator returns a func minting IDs of one kind. Services take this as a
// dependency so tests can substitute fixed sequences.
func Generator(kind Kind) func() string {
	return func() string { return New(kind).String() }
}

// Parse validates s as "<kind>_<ulid>".
func Parse(s string) (ID, error) {
	s = strings.TrimSpace(s)
	prefix, raw, ok := strings.Cut(s, sep)
	if !ok || prefix == "" {
		return Zero, ErrInvalid
	}
	if _, err := ulid.ParseStrict(raw); err != nil {
		return Zero, ErrInvalid
	}
	return ID(s), nil
}

// ParseKind is Parse plus a check that the ID is of the expected kind.
func ParseKind(s string, kind Kind) (ID, error) {
	id, err := Parse(s)
	if err != nil {
		return Zero, err
	}
	if id.Kind() != kind {
		return Zero, ErrInvalid
	}
	return id, nil
}

// MustParse parses or panics. Useful for hard-coded IDs in tests.
func MustParse(s string) ID {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool { return id == Zero }

// String returns the canonical string form.
func (id ID) String() string { return string(id) }

// Kind returns the prefix of the ID, or "" for malformed IDs.
func (id ID) Kind() Kind {
	prefix, _, ok := strings.Cut(string(id), sep)
	if !ok {
		return ""
	}
	return Kind(prefix)
}

// Time extracts the embedded UTC timestamp. Zero or invalid IDs yield the
// zero time.
func (id ID) Time() time.Time {
	_, raw, ok := strings.Cut(string(id), sep)
	if !ok {
		return time.Time{}
	}
	u, err := ulid.ParseStrict(raw)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(u.Time())
}

// Compare reports the lexical ordering between a and b.
// Returns -1 if a<b, 0 if a==b, +1 if a>b.
func Compare(a, b ID) int {
	return strings.Compare(a.String(), b.String())
}
