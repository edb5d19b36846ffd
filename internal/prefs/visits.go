package prefs

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/cribeiro84/prhub/internal/store"
)

// Visits tracks when each pull request was last looked at.
type Visits struct {
	st store.Store
}

// NewVisits returns visit tracking backed by st.
func NewVisits(st store.Store) *Visits {
	return &Visits{st: st}
}

// VisitKey returns the storage key for a pull request's last visit.
func VisitKey(prID int) string {
	return Key + ".lastVisit." + strconv.Itoa(prID)
}

// Load returns the stored visit time, or the zero time when none is readable.
func (v *Visits) Load(prID int) time.Time {
	if v == nil || v.st == nil {
		return time.Time{}
	}
	data, ok, err := v.st.Get(VisitKey(prID))
	if err != nil || !ok {
		return time.Time{}
	}
	var at time.Time
	if err := json.Unmarshal(data, &at); err != nil {
		return time.Time{}
	}
	return at
}

// Record stores at as the last visit time.
func (v *Visits) Record(prID int, at time.Time) error {
	if v == nil || v.st == nil {
		return nil
	}
	data, err := json.Marshal(at.UTC())
	if err != nil {
		return err
	}
	return v.st.Set(VisitKey(prID), data)
}

// TouchAll returns the previous visit time of every pull request in ids
// and then records at for all of them in a single store write.
func (v *Visits) TouchAll(ids []int, at time.Time) (map[int]time.Time, error) {
	prev := make(map[int]time.Time, len(ids))
	if v == nil || v.st == nil || len(ids) == 0 {
		return prev, nil
	}
	data, err := json.Marshal(at.UTC())
	if err != nil {
		return prev, err
	}
	values := make(map[string][]byte, len(ids))
	for _, id := range ids {
		prev[id] = v.Load(id)
		values[VisitKey(id)] = data
	}
	return prev, v.st.SetMany(values)
}

// Touch returns the previous visit time and then records at. The read
// always happens before the write.
func (v *Visits) Touch(prID int, at time.Time) (time.Time, error) {
	prev := v.Load(prID)
	return prev, v.Record(prID, at)
}
