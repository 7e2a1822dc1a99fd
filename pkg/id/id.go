// Package id generates ULID identifiers for strategies and backtest runs.
// ULIDs encode their creation time in the high bits, so ids sort in creation
// order, which keeps strategy listings stable without an extra sort key.
package id

import (
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu      sync.Mutex
	entropy io.Reader
)

func init() {
	var seed int64
	_ = binary.Read(cryptorand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	// Monotonic entropy keeps ids generated within the same millisecond in
	// strictly increasing order.
	entropy = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a fresh ULID string stamped with the current UTC time.
func New() string {
	return NewAt(time.Now().UTC())
}

// NewAt returns a ULID string stamped with t. Exposed so callers that already
// hold a creation timestamp can reuse it.
func NewAt(t time.Time) string {
	mu.Lock()
	defer mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		// Only possible if the entropy source fails or the timestamp
		// overflows the ULID epoch.
		panic(err)
	}
	return u.String()
}
