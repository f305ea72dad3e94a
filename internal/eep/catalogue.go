package eep

import (
	"github.com/dduransseau/enocean2mqtt/internal/apperrors"
	"github.com/dduransseau/enocean2mqtt/internal/esp3"
)

// Catalogue is the immutable (RORG, FUNC, TYPE) -> Profile lookup table,
// built once at startup and shared without locks.
type Catalogue struct {
	telegrams map[esp3.RORG]map[uint8]map[uint8]*Profile
}

// NewCatalogue wraps an already-built telegram map, e.g. from LoadXML.
func NewCatalogue(telegrams map[esp3.RORG]map[uint8]map[uint8]*Profile) *Catalogue {
	return &Catalogue{telegrams: telegrams}
}

// GetProfile looks up the profile for (rorg, func, typ). Returns
// apperrors.CodeProfileNotFound if no such profile is loaded.
func (c *Catalogue) GetProfile(rorg esp3.RORG, fn, typ uint8) (*Profile, error) {
	byFunc, ok := c.telegrams[rorg]
	if !ok {
		return nil, apperrors.New(apperrors.CodeProfileNotFound, "no profiles for RORG "+rorg.String())
	}
	byType, ok := byFunc[fn]
	if !ok {
		return nil, apperrors.New(apperrors.CodeProfileNotFound, "no FUNC group for RORG "+rorg.String())
	}
	profile, ok := byType[typ]
	if !ok {
		return nil, apperrors.New(apperrors.CodeProfileNotFound, "no profile for given TYPE")
	}
	return profile, nil
}

// GetTelegramForm resolves a FunctionGroup for the given command/direction.
//
// If the profile declares a command enum but the caller passes none, lookup
// fails (CodeCommandRequiredProfile). If the exact (command, direction) key
// is not declared, falls back to (command, none) before giving up.
func (p *Profile) GetTelegramForm(command *int, direction *int) (*FunctionGroup, error) {
	if p.Command != nil && command == nil {
		return nil, apperrors.New(apperrors.CodeCommandRequiredProfile, "profile "+p.Code()+" requires a command")
	}

	key := dataKeyFrom(command, direction)
	if fg, ok := p.Data[key]; ok {
		return fg, nil
	}

	if direction != nil {
		fallback := dataKeyFrom(command, nil)
		if fg, ok := p.Data[fallback]; ok {
			return fg, nil
		}
	}

	return nil, apperrors.New(apperrors.CodeProfileNotFound, "no matching telegram form in profile "+p.Code())
}

func dataKeyFrom(command, direction *int) dataKey {
	k := dataKey{}
	if command != nil {
		k.command = *command
		k.hasCmd = true
	}
	if direction != nil {
		k.direction = *direction
		k.hasDir = true
	}
	return k
}
