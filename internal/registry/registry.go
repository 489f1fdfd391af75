// Package registry keeps one rotation record per live vessel.
package registry

import (
	"bytes"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/brunoga/deep"
	"github.com/google/uuid"

	"github.com/OCAP2/persistentrotation/internal/session"
	"github.com/OCAP2/persistentrotation/pkg/core"
	"github.com/OCAP2/persistentrotation/pkg/host"
	"github.com/OCAP2/persistentrotation/pkg/orientation"
)

// DefaultDebrisSpinMax bounds the per-axis random spin of tumbling objects.
const DefaultDebrisSpinMax = 0.1

// Options tune record generation.
type Options struct {
	// DebrisSpinMax is the exclusive upper bound of each spin component.
	DebrisSpinMax float64
	// Rand is the source for debris spin. Nil uses a time-seeded source.
	Rand *rand.Rand
}

// Registry maps vessel ids to records. It is owned by the engine and only
// touched from the host tick thread, so it carries no lock.
type Registry struct {
	records map[uuid.UUID]*core.Record
	session *session.Context
	spinMax float64
	rnd     *rand.Rand
}

// New creates an empty registry. The session supplies the default reference
// mode for generated records.
func New(sess *session.Context, opts Options) *Registry {
	if opts.DebrisSpinMax <= 0 {
		opts.DebrisSpinMax = DefaultDebrisSpinMax
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Registry{
		records: make(map[uuid.UUID]*core.Record),
		session: sess,
		spinMax: opts.DebrisSpinMax,
		rnd:     opts.Rand,
	}
}

// Len returns the number of records.
func (r *Registry) Len() int {
	return len(r.records)
}

// Get returns the record for id without generating one.
func (r *Registry) Get(id uuid.UUID) (*core.Record, bool) {
	rec, ok := r.records[id]
	return rec, ok
}

// Find returns the record for v, generating a default one on first sight.
func (r *Registry) Find(v host.Vessel) *core.Record {
	if rec, ok := r.records[v.ID()]; ok {
		return rec
	}
	return r.Generate(v)
}

// Generate replaces any record for v with a freshly defaulted one.
func (r *Registry) Generate(v host.Vessel) *core.Record {
	rec := core.NewRecord(v.ID())
	rec.Rotation = v.Rotation()

	if body := v.MainBody(); body != nil {
		rec.Direction = orientation.Direction(v.Position(), body.Position())
		if r.session != nil && r.session.DefaultReferenceMode() == core.ReferenceDynamic {
			rec.DynamicReference = true
			rec.Reference = core.BodyReference(body.Name())
		}
	}

	if v.Type().Tumbles() {
		rec.Momentum = orientation.Vec{
			X: r.randomSpin(),
			Y: r.randomSpin(),
			Z: r.randomSpin(),
		}
	}

	r.records[rec.ID] = rec
	return rec
}

// randomSpin returns a spin component in [0, spinMax) on a 0.01 grid.
func (r *Registry) randomSpin() float64 {
	steps := int(math.Round(r.spinMax * 100))
	if steps < 1 {
		return 0
	}
	return float64(r.rnd.IntN(steps)) / 100
}

// Put stores rec, replacing any record with the same id. A reference to the
// record's own vessel is dropped.
func (r *Registry) Put(rec *core.Record) {
	if rec.Reference.IsVessel(rec.ID) {
		rec.Reference = core.NoReference()
	}
	if rec.LastReference.IsVessel(rec.ID) {
		rec.LastReference = core.NoReference()
	}
	r.records[rec.ID] = rec
}

// Delete removes the record for id.
func (r *Registry) Delete(id uuid.UUID) {
	delete(r.records, id)
}

// Reset removes every record.
func (r *Registry) Reset() {
	clear(r.records)
}

// Records returns all records ordered by id.
func (r *Registry) Records() []*core.Record {
	out := make([]*core.Record, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b *core.Record) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return out
}

// Snapshot returns deep copies of all records ordered by id.
func (r *Registry) Snapshot() []core.Record {
	recs := r.Records()
	out := make([]core.Record, len(recs))
	for i, rec := range recs {
		out[i] = deep.MustCopy(*rec)
	}
	return out
}

// RegisterOrRefreshAll runs once per tick after every live vessel has been
// processed. It ensures each live vessel has a record, removes records of
// vessels that are gone and clears the processed marks for the next tick.
// It returns the ids of the removed records.
func (r *Registry) RegisterOrRefreshAll(live []host.Vessel) []uuid.UUID {
	for _, v := range live {
		r.Find(v).Processed = true
	}

	var pruned []uuid.UUID
	for id, rec := range r.records {
		if !rec.Processed {
			pruned = append(pruned, id)
			continue
		}
		rec.Processed = false
	}
	for _, id := range pruned {
		delete(r.records, id)
	}
	slices.SortFunc(pruned, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
	return pruned
}

// DropReferencesTo nulls every current and lagged reference to the vessel
// with id and returns how many records changed.
func (r *Registry) DropReferencesTo(id uuid.UUID) int {
	changed := 0
	for _, rec := range r.records {
		hit := false
		if rec.Reference.IsVessel(id) {
			rec.Reference = core.NoReference()
			rec.LastActive = false
			hit = true
		}
		if rec.LastReference.IsVessel(id) {
			rec.LastReference = core.NoReference()
			hit = true
		}
		if hit {
			changed++
		}
	}
	return changed
}
