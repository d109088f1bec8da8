package inter

import (
	"fmt"
	"time"

	"github.com/Fantom-foundation/lachesis-base/common/bigendian"
)

// Timestamp is a point in simulated time, counted in milliseconds from the
// start of a run. Simulated time never relates to the wall clock.
type Timestamp uint64

// FromDuration converts a duration to simulated milliseconds, truncating
// anything below a millisecond.
func FromDuration(d time.Duration) Timestamp {
	if d <= 0 {
		return 0
	}
	return Timestamp(d / time.Millisecond)
}

// Duration converts the timestamp back into a time.Duration.
func (t Timestamp) Duration() time.Duration {
	return time.Duration(t) * time.Millisecond
}

// Bytes returns the big-endian encoding used when hashing records.
func (t Timestamp) Bytes() []byte {
	return bigendian.Uint64ToBytes(uint64(t))
}

func (t Timestamp) String() string {
	return fmt.Sprintf("%dms", uint64(t))
}
