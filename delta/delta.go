// Package delta implements the state-delta mechanism (spec.md §4.10): a
// copy-on-write staging area for one block's mutations. Base is borrowed
// immutably for the whole transition; every mutation lands in a dedicated
// "prime" slot, lazily cloned from base on first Ensure call. Merge moves
// every present prime over base atomically on success; on any error the
// delta is simply discarded and base is untouched.
package delta

import "github.com/jamzig/jamzig-sub009/state"

// Delta stages one block's worth of state mutations against an immutable
// base. The zero value is not usable; construct with New.
type Delta struct {
	base *state.State

	slot       *state.TimeSlot
	entropy    *state.Entropy
	validators *state.ValidatorKeys
	safrole    *state.Safrole
	disputes   *state.Disputes
	pending    *state.PendingReports
	history    *state.RecentHistory
	services   *state.Services
	auth       *state.AuthorizationState
	statistics *state.Statistics
}

// New returns a Delta staged against base. base is never mutated by any
// Delta method.
func New(base *state.State) *Delta {
	return &Delta{base: base}
}

// Base returns the immutable pre-state this delta is staged against.
func (d *Delta) Base() *state.State { return d.base }

// EnsureSlot returns a mutable pointer to the τ prime, cloning base.Slot on
// first call.
func (d *Delta) EnsureSlot() *state.TimeSlot {
	if d.slot == nil {
		v := d.base.Slot
		d.slot = &v
	}
	return d.slot
}

// GetSlot returns the prime if staged, else base.
func (d *Delta) GetSlot() state.TimeSlot {
	if d.slot != nil {
		return *d.slot
	}
	return d.base.Slot
}

// EnsureEntropy returns a mutable pointer to the η prime.
func (d *Delta) EnsureEntropy() *state.Entropy {
	if d.entropy == nil {
		v := d.base.Entropy.Clone()
		d.entropy = &v
	}
	return d.entropy
}

// GetEntropy returns the prime if staged, else base.
func (d *Delta) GetEntropy() state.Entropy {
	if d.entropy != nil {
		return *d.entropy
	}
	return d.base.Entropy
}

// EnsureValidators returns a mutable pointer to the κ/λ/ι prime.
func (d *Delta) EnsureValidators() *state.ValidatorKeys {
	if d.validators == nil {
		v := d.base.Validators.Clone()
		d.validators = &v
	}
	return d.validators
}

// GetValidators returns the prime if staged, else base.
func (d *Delta) GetValidators() state.ValidatorKeys {
	if d.validators != nil {
		return *d.validators
	}
	return d.base.Validators
}

// EnsureSafrole returns a mutable pointer to the γ prime.
func (d *Delta) EnsureSafrole() *state.Safrole {
	if d.safrole == nil {
		v := d.base.Safrole.Clone()
		d.safrole = &v
	}
	return d.safrole
}

// GetSafrole returns the prime if staged, else base.
func (d *Delta) GetSafrole() state.Safrole {
	if d.safrole != nil {
		return *d.safrole
	}
	return d.base.Safrole
}

// EnsureDisputes returns a mutable pointer to the ψ prime.
func (d *Delta) EnsureDisputes() *state.Disputes {
	if d.disputes == nil {
		v := d.base.Disputes.Clone()
		d.disputes = &v
	}
	return d.disputes
}

// GetDisputes returns the prime if staged, else base.
func (d *Delta) GetDisputes() state.Disputes {
	if d.disputes != nil {
		return *d.disputes
	}
	return d.base.Disputes
}

// EnsurePending returns a mutable pointer to the ρ prime.
func (d *Delta) EnsurePending() *state.PendingReports {
	if d.pending == nil {
		v := d.base.Pending.Clone()
		d.pending = &v
	}
	return d.pending
}

// GetPending returns the prime if staged, else base.
func (d *Delta) GetPending() state.PendingReports {
	if d.pending != nil {
		return *d.pending
	}
	return d.base.Pending
}

// EnsureHistory returns a mutable pointer to the β prime.
func (d *Delta) EnsureHistory() *state.RecentHistory {
	if d.history == nil {
		v := d.base.History.Clone()
		d.history = &v
	}
	return d.history
}

// GetHistory returns the prime if staged, else base.
func (d *Delta) GetHistory() state.RecentHistory {
	if d.history != nil {
		return *d.history
	}
	return d.base.History
}

// EnsureServices returns a mutable pointer to the δ prime.
func (d *Delta) EnsureServices() *state.Services {
	if d.services == nil {
		v := d.base.Services.Clone()
		d.services = &v
	}
	return d.services
}

// GetServices returns the prime if staged, else base.
func (d *Delta) GetServices() state.Services {
	if d.services != nil {
		return *d.services
	}
	return d.base.Services
}

// EnsureAuth returns a mutable pointer to the α/φ prime.
func (d *Delta) EnsureAuth() *state.AuthorizationState {
	if d.auth == nil {
		v := d.base.Auth.Clone()
		d.auth = &v
	}
	return d.auth
}

// GetAuth returns the prime if staged, else base.
func (d *Delta) GetAuth() state.AuthorizationState {
	if d.auth != nil {
		return *d.auth
	}
	return d.base.Auth
}

// EnsureStatistics returns a mutable pointer to the π prime.
func (d *Delta) EnsureStatistics() *state.Statistics {
	if d.statistics == nil {
		v := d.base.Statistics.Clone()
		d.statistics = &v
	}
	return d.statistics
}

// GetStatistics returns the prime if staged, else base.
func (d *Delta) GetStatistics() state.Statistics {
	if d.statistics != nil {
		return *d.statistics
	}
	return d.base.Statistics
}

// Merge moves every present prime over a fresh clone of base and returns
// the resulting post-state. It never mutates base itself, so a failed
// transition can simply discard its Delta and keep using base (spec.md
// §4.10, §4.9 step 12).
func (d *Delta) Merge() *state.State {
	out := d.base.Clone()
	if d.slot != nil {
		out.Slot = *d.slot
	}
	if d.entropy != nil {
		out.Entropy = *d.entropy
	}
	if d.validators != nil {
		out.Validators = *d.validators
	}
	if d.safrole != nil {
		out.Safrole = *d.safrole
	}
	if d.disputes != nil {
		out.Disputes = *d.disputes
	}
	if d.pending != nil {
		out.Pending = *d.pending
	}
	if d.history != nil {
		out.History = *d.history
	}
	if d.services != nil {
		out.Services = *d.services
	}
	if d.auth != nil {
		out.Auth = *d.auth
	}
	if d.statistics != nil {
		out.Statistics = *d.statistics
	}
	return out
}
