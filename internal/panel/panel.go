// Package panel renders and toggles the six binary-output peripherals
// from the latest coil snapshot.
package panel

import (
	"context"
	"errors"
	"sync"

	"github.com/motion-console/backend/internal/models"
)

// ErrUnknownDevice is returned for toggles of a device not in the table.
var ErrUnknownDevice = errors.New("unknown device")

// ErrUnknownAction rejects coil pulses outside the known action set.
var ErrUnknownAction = errors.New("未知线圈动作")

// CoilPulser is the slice of the controller client the panel needs.
type CoilPulser interface {
	PulseCoil(ctx context.Context, action string) error
}

// DeviceView is one device's displayed state plus the action a toggle
// would issue. Assumed marks an optimistic state not yet confirmed by
// telemetry.
type DeviceView struct {
	Name        string           `json:"name"`
	Label       string           `json:"label"`
	State       models.CoilState `json:"state"`
	StateLabel  string           `json:"stateLabel"`
	Assumed     bool             `json:"assumed"`
	NextAction  string           `json:"nextAction"`
	OnRegister  string           `json:"onRegister"`
	OffRegister string           `json:"offRegister"`
}

// Panel derives device views from coil snapshots and issues pulsed
// toggles. Toggles are optimistic: the assumed state is shown until the
// next telemetry snapshot overwrites it.
type Panel struct {
	pulser   CoilPulser
	devices  []Device
	commands []CommandCoil
	actions  map[string]struct{}

	mu      sync.RWMutex
	assumed map[string]models.CoilState
}

// New creates a panel over the given device table.
func New(pulser CoilPulser, devices []Device, commands []CommandCoil) *Panel {
	actions := make(map[string]struct{}, len(devices)*2+len(commands))
	for _, d := range devices {
		actions[d.OnAction] = struct{}{}
		actions[d.OffAction] = struct{}{}
	}
	for _, c := range commands {
		actions[c.Name] = struct{}{}
	}
	return &Panel{
		pulser:   pulser,
		devices:  devices,
		commands: commands,
		actions:  actions,
		assumed:  make(map[string]models.CoilState),
	}
}

// Devices returns the device table.
func (p *Panel) Devices() []Device {
	return p.devices
}

// Commands returns the motion command coils.
func (p *Panel) Commands() []CommandCoil {
	return p.commands
}

// CoilNames returns every known coil action name, used to seed the
// all-false default snapshot.
func (p *Panel) CoilNames() []string {
	names := make([]string, 0, len(p.actions))
	for _, d := range p.devices {
		names = append(names, d.OnAction, d.OffAction)
	}
	for _, c := range p.commands {
		names = append(names, c.Name)
	}
	return names
}

// ValidateAction checks a coil pulse request against the known action
// set before anything is sent.
func (p *Panel) ValidateAction(action string) error {
	if _, ok := p.actions[action]; !ok {
		return ErrUnknownAction
	}
	return nil
}

// Observe accepts a fresh telemetry snapshot. Confirmed data always
// wins: every optimistic assumption is dropped.
func (p *Panel) Observe(*models.MachineSnapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.assumed) > 0 {
		p.assumed = make(map[string]models.CoilState)
	}
}

// States derives the displayed view of every device from the snapshot,
// with optimistic assumptions overlaid. Only the on address decides
// state; absence is unknown, never off.
func (p *Panel) States(snap *models.MachineSnapshot) []DeviceView {
	p.mu.RLock()
	defer p.mu.RUnlock()

	views := make([]DeviceView, 0, len(p.devices))
	for _, d := range p.devices {
		state := snap.CoilStateOf(d.OnAction)
		assumed := false
		if st, ok := p.assumed[d.Name]; ok {
			state = st
			assumed = true
		}
		views = append(views, DeviceView{
			Name:        d.Name,
			Label:       d.Label,
			State:       state,
			StateLabel:  stateLabel(state),
			Assumed:     assumed,
			NextAction:  nextAction(d, state),
			OnRegister:  RegisterLabel(d.OnRegister),
			OffRegister: RegisterLabel(d.OffRegister),
		})
	}
	return views
}

// Toggle pulses the device's opposite coil based on its displayed
// state: on pulses the off address, anything else (off or unknown)
// pulses the on address. The assumed result is recorded only when the
// pulse was accepted.
func (p *Panel) Toggle(ctx context.Context, name string, snap *models.MachineSnapshot) (DeviceView, error) {
	var dev *Device
	for i := range p.devices {
		if p.devices[i].Name == name {
			dev = &p.devices[i]
			break
		}
	}
	if dev == nil {
		return DeviceView{}, ErrUnknownDevice
	}

	state := snap.CoilStateOf(dev.OnAction)
	p.mu.RLock()
	if st, ok := p.assumed[name]; ok {
		state = st
	}
	p.mu.RUnlock()

	action := dev.OnAction
	target := models.CoilOn
	if state == models.CoilOn {
		action = dev.OffAction
		target = models.CoilOff
	}
	if err := p.pulser.PulseCoil(ctx, action); err != nil {
		return DeviceView{}, err
	}

	p.mu.Lock()
	p.assumed[name] = target
	p.mu.Unlock()

	return DeviceView{
		Name:        dev.Name,
		Label:       dev.Label,
		State:       target,
		StateLabel:  stateLabel(target),
		Assumed:     true,
		NextAction:  nextAction(*dev, target),
		OnRegister:  RegisterLabel(dev.OnRegister),
		OffRegister: RegisterLabel(dev.OffRegister),
	}, nil
}

func stateLabel(state models.CoilState) string {
	switch state {
	case models.CoilOn:
		return "已通电"
	case models.CoilOff:
		return "已断电"
	default:
		return "未知"
	}
}

// nextAction names the coil a toggle would pulse from the given state.
func nextAction(d Device, state models.CoilState) string {
	if state == models.CoilOn {
		return d.OffAction
	}
	return d.OnAction
}
