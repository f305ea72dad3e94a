package gateway

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
	"github.com/dduransseau/enocean2mqtt/internal/config"
	"github.com/dduransseau/enocean2mqtt/internal/eep"
	"github.com/dduransseau/enocean2mqtt/internal/esp3"
)

// Equipment is the gateway's runtime record of one known device: its
// address, rorg/func/type, profile back-reference, and last-seen signal
// stats, plus the config-file-backed identity fields (Name, ID, Channel,
// Description).
type Equipment struct {
	ID          uuid.UUID
	Name        string
	Address     [4]byte
	RORG        esp3.RORG
	Func        uint8
	Type        uint8
	Profile     *eep.Profile
	Channel     string
	Description string

	mu       sync.Mutex
	RSSI     int
	LastSeen time.Time
	FirstSeen time.Time
	Repeated int
}

// Code returns the equipment's EEP code, "RR-FF-TT".
func (e *Equipment) Code() string {
	if e.Profile != nil {
		return e.Profile.Code()
	}
	return fmt.Sprintf("%02X-%02X-%02X", uint8(e.RORG), e.Func, e.Type)
}

// Touch records a fresh observation: first_seen on the first call, rssi
// and last_seen on every call, and bumps the repeated counter when the
// telegram arrived with a nonzero repeater count.
func (e *Equipment) Touch(rssi int, repeaterCount uint8, now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.FirstSeen.IsZero() {
		e.FirstSeen = now
	}
	e.LastSeen = now
	e.RSSI = rssi
	if repeaterCount > 0 {
		e.Repeated++
	}
}

// FromConfig builds an Equipment from its YAML representation, resolving
// its profile out of cat. Returns apperrors.CodeInvalidConfig on a
// malformed hex field.
func FromConfig(ec config.EquipmentConfig, cat *eep.Catalogue) (*Equipment, error) {
	address, err := parseHexAddress(ec.Address)
	if err != nil {
		return nil, err
	}
	rorg, err := parseHexByte(ec.RORG)
	if err != nil {
		return nil, err
	}
	fn, err := parseHexByte(ec.Func)
	if err != nil {
		return nil, err
	}
	typ, err := parseHexByte(ec.Type)
	if err != nil {
		return nil, err
	}

	id := uuid.Nil
	if ec.ID != "" {
		if parsed, err := uuid.Parse(ec.ID); err == nil {
			id = parsed
		}
	}
	if id == uuid.Nil {
		id = uuid.New()
	}

	eq := &Equipment{
		ID:          id,
		Name:        ec.Name,
		Address:     address,
		RORG:        esp3.RORG(rorg),
		Func:        fn,
		Type:        typ,
		Channel:     ec.Channel,
		Description: ec.Description,
	}
	if cat != nil {
		if profile, err := cat.GetProfile(eq.RORG, fn, typ); err == nil {
			eq.Profile = profile
		}
	}
	return eq, nil
}

// ToConfig renders eq back to its YAML representation, for appending a
// newly-learned device to the config file.
func (e *Equipment) ToConfig() config.EquipmentConfig {
	return config.EquipmentConfig{
		ID:          e.ID.String(),
		Name:        e.Name,
		Address:     fmt.Sprintf("%02X%02X%02X%02X", e.Address[0], e.Address[1], e.Address[2], e.Address[3]),
		RORG:        fmt.Sprintf("%02X", uint8(e.RORG)),
		Func:        fmt.Sprintf("%02X", e.Func),
		Type:        fmt.Sprintf("%02X", e.Type),
		Channel:     e.Channel,
		Description: e.Description,
	}
}

// generateEquipmentName derives a stable default name for a freshly
// learned device from its radio address, used until the operator renames
// it in the config file.
func generateEquipmentName(address [4]byte) string {
	return fmt.Sprintf("device-%02x%02x%02x%02x", address[0], address[1], address[2], address[3])
}

// newEquipmentID allocates a fresh identifier for a newly learned device.
func newEquipmentID() uuid.UUID { return uuid.New() }

func parseHexAddress(s string) ([4]byte, error) {
	var addr [4]byte
	if len(s) != 8 {
		return addr, apperrors.New(apperrors.CodeInvalidConfig, "address must be 8 hex characters: "+s)
	}
	for i := 0; i < 4; i++ {
		b, err := parseHexByte(s[i*2 : i*2+2])
		if err != nil {
			return addr, err
		}
		addr[i] = b
	}
	return addr, nil
}

func parseHexByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 16, 8)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.CodeInvalidConfig, "invalid hex byte: "+s)
	}
	return uint8(v), nil
}

// Registry is the set of learned equipment, read by the gateway's receive
// loop and by its MQTT command callback, and mutated only on teach-in
// acceptance. A single lock held briefly suffices.
type Registry struct {
	mu  sync.RWMutex
	byAddress map[[4]byte]*Equipment
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byAddress: make(map[[4]byte]*Equipment)}
}

// Add registers eq, replacing any prior entry at the same address.
func (r *Registry) Add(eq *Equipment) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byAddress[eq.Address] = eq
}

// Get returns the equipment at address, or nil.
func (r *Registry) Get(address [4]byte) *Equipment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byAddress[address]
}

// All returns a snapshot slice of every registered equipment.
func (r *Registry) All() []*Equipment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Equipment, 0, len(r.byAddress))
	for _, eq := range r.byAddress {
		out = append(out, eq)
	}
	return out
}

// ByName returns the equipment with the given name, or nil.
func (r *Registry) ByName(name string) *Equipment {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, eq := range r.byAddress {
		if eq.Name == name {
			return eq
		}
	}
	return nil
}
