package stats

import (
	"github.com/AdguardTeam/dnsreport/internal/eventstore"
	"github.com/AdguardTeam/dnsreport/internal/privacy"
	"github.com/AdguardTeam/golibs/container"
)

// Window returns the active part of the slot ring: from the first non-empty
// slot up to, but not including, the first slot starting at or after now.
// ok is false if there is nothing to show.
func Window(slots []eventstore.Slot, now int64) (start, end int, ok bool) {
	if len(slots) == 0 {
		return 0, 0, false
	}

	minTime := slots[0].Time

	start = -1
	for i, s := range slots {
		if s.Time >= minTime && !s.IsEmpty() {
			start = i

			break
		}
	}

	if start < 0 {
		return 0, 0, false
	}

	end = len(slots)
	for i, s := range slots {
		if s.Time >= now {
			end = i

			break
		}
	}

	if end <= start {
		return 0, 0, false
	}

	return start, end, true
}

// History returns the slots of the active window.
func History(slots []eventstore.Slot, now int64) (window []eventstore.Slot) {
	start, end, ok := Window(slots, now)
	if !ok {
		return nil
	}

	return slots[start:end]
}

// ClientRef describes a column of [ClientsOverTime].
type ClientRef struct {
	Name string
	IP   string
}

// ClientsSlot is the per-client counts of a single slot.
type ClientsSlot struct {
	// Counts has one entry per column of [ClientsOverTime].
	Counts []int64

	// Time is the start of the slot.
	Time int64
}

// ClientsOverTime is the per-client activity in the active window.
type ClientsOverTime struct {
	// Clients describes the columns.
	Clients []ClientRef

	// Slots are the rows.
	Slots []ClientsSlot
}

// NewClientsOverTime returns the per-client activity in the active window.
// counts is indexed by client ID and then by slot.  The columns are the
// clients in ID order except the excluded and the hidden ones.  The result is
// empty if the window is empty.
func NewClientsOverTime(
	slots []eventstore.Slot,
	clients []eventstore.Client,
	counts [][]int64,
	exclude *container.MapSet[string],
	now int64,
) (cot *ClientsOverTime) {
	cot = &ClientsOverTime{}

	start, end, ok := Window(slots, now)
	if !ok {
		return cot
	}

	var ids []int
	for i := range clients {
		c := &clients[i]
		if isExcludedClient(exclude, c) || privacy.IsHiddenClient(c.IP) {
			continue
		}

		ids = append(ids, c.ID)
		cot.Clients = append(cot.Clients, ClientRef{
			Name: c.Name,
			IP:   c.IP,
		})
	}

	cot.Slots = make([]ClientsSlot, 0, end-start)
	for i := start; i < end; i++ {
		row := make([]int64, len(ids))
		for col, id := range ids {
			row[col] = counts[id][i]
		}

		cot.Slots = append(cot.Slots, ClientsSlot{
			Counts: row,
			Time:   slots[i].Time,
		})
	}

	return cot
}
