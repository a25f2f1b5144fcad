package state

// ValidatorStats is one validator's per-epoch counters (spec.md §3/§4.8).
type ValidatorStats struct {
	BlocksProduced          uint32
	TicketsIntroduced       uint32
	PreimagesIntroduced     uint32
	OctetsAcrossPreimages   uint64
	ReportsGuaranteed       uint32
	AvailabilityAssurances  uint32
}

// CoreStats aggregates refine-load fields observed for one core.
type CoreStats struct {
	GasUsed         uint64
	ImportedSegments uint32
	ExportedSegments uint32
	ExtrinsicSize   uint64
	BundleSize      uint64
}

// ServiceStats aggregates accumulation/transfer gas usage for one service.
type ServiceStats struct {
	AccumulateGasUsed uint64
	TransferGasUsed   uint64
	AccumulateCalls   uint32
	TransferCalls     uint32
}

// Statistics is π (spec.md §3/§4.8): per-validator current/previous epoch
// buckets plus per-core and per-service aggregates. The latter two are not
// epoch-bucketed; they persist until the report or service leaves scope.
type Statistics struct {
	CurrentEpoch  []ValidatorStats // indexed by validator index into κ
	PreviousEpoch []ValidatorStats
	Cores         []CoreStats // indexed by core
	Services      map[ServiceID]ServiceStats
}

// NewStatistics returns a zeroed Statistics sized for validatorsCount
// validators and coreCount cores.
func NewStatistics(validatorsCount, coreCount uint32) Statistics {
	return Statistics{
		CurrentEpoch:  make([]ValidatorStats, validatorsCount),
		PreviousEpoch: make([]ValidatorStats, validatorsCount),
		Cores:         make([]CoreStats, coreCount),
		Services:      make(map[ServiceID]ServiceStats),
	}
}

// Clone returns a deep copy of s.
func (s Statistics) Clone() Statistics {
	out := Statistics{
		CurrentEpoch:  append([]ValidatorStats(nil), s.CurrentEpoch...),
		PreviousEpoch: append([]ValidatorStats(nil), s.PreviousEpoch...),
		Cores:         append([]CoreStats(nil), s.Cores...),
		Services:      make(map[ServiceID]ServiceStats, len(s.Services)),
	}
	for id, st := range s.Services {
		out.Services[id] = st
	}
	return out
}

// RotateEpoch moves CurrentEpoch into PreviousEpoch and zeroes a fresh
// CurrentEpoch bucket (§4.8: "On epoch rotation, current epoch bucket
// becomes previous and current is zeroed").
func (s Statistics) RotateEpoch() Statistics {
	out := s
	out.PreviousEpoch = append([]ValidatorStats(nil), s.CurrentEpoch...)
	out.CurrentEpoch = make([]ValidatorStats, len(s.CurrentEpoch))
	out.Cores = append([]CoreStats(nil), s.Cores...)
	out.Services = make(map[ServiceID]ServiceStats, len(s.Services))
	for id, st := range s.Services {
		out.Services[id] = st
	}
	return out
}
