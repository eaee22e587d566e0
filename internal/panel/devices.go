package panel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Device is one binary-output peripheral with a paired on/off coil.
// Register addresses are operator-reference annotations only; requests
// are always built from the symbolic action names.
type Device struct {
	Name        string `yaml:"name" json:"name"`
	Label       string `yaml:"label" json:"label"`
	OnAction    string `yaml:"on_action" json:"onAction"`
	OffAction   string `yaml:"off_action" json:"offAction"`
	OnRegister  int    `yaml:"on_register" json:"-"`
	OffRegister int    `yaml:"off_register" json:"-"`
}

// CommandCoil is a motion command coil: pulse-only, no displayed state.
type CommandCoil struct {
	Name     string `yaml:"name" json:"name"`
	Label    string `yaml:"label" json:"label"`
	Register int    `yaml:"register" json:"-"`
}

// deviceTable is the devices.yaml document shape.
type deviceTable struct {
	Devices  []Device      `yaml:"devices"`
	Commands []CommandCoil `yaml:"commands"`
}

// DefaultDevices returns the six fixed peripherals with their register
// pairs.
func DefaultDevices() []Device {
	return []Device{
		{Name: "machine", Label: "总电源", OnAction: "machine_on", OffAction: "machine_off", OnRegister: 0x0036, OffRegister: 0x0037},
		{Name: "light", Label: "补光灯", OnAction: "light_on", OffAction: "light_off", OnRegister: 0x0038, OffRegister: 0x0039},
		{Name: "pump", Label: "水泵", OnAction: "pump_on", OffAction: "pump_off", OnRegister: 0x003A, OffRegister: 0x003B},
		{Name: "dc12", Label: "DC12V", OnAction: "dc12_on", OffAction: "dc12_off", OnRegister: 0x003C, OffRegister: 0x003D},
		{Name: "dc24", Label: "DC24V", OnAction: "dc24_on", OffAction: "dc24_off", OnRegister: 0x003E, OffRegister: 0x003F},
		{Name: "ac220", Label: "AC220V", OnAction: "ac220_on", OffAction: "ac220_off", OnRegister: 0x0040, OffRegister: 0x0041},
	}
}

// DefaultCommands returns the motion command coils.
func DefaultCommands() []CommandCoil {
	return []CommandCoil{
		{Name: "xy_go_target", Label: "XY 移动", Register: 0x0033},
		{Name: "z_go_target", Label: "Z 移动", Register: 0x004C},
		{Name: "xy_home", Label: "XY 回原点", Register: 0x0047},
		{Name: "z_home", Label: "Z 回原点", Register: 0x004D},
		{Name: "xy_stop", Label: "XY 停止", Register: 0x004B},
		{Name: "z_stop", Label: "Z 停止", Register: 0x0053},
		{Name: "cmd_pause", Label: "暂停", Register: 0x004E},
	}
}

// LoadDeviceTable reads a devices.yaml override. A missing file is not
// an error; the compiled-in table is used. A present but invalid file
// is an error so a typo never silently drops devices.
func LoadDeviceTable(path string) ([]Device, []CommandCoil, error) {
	if path == "" {
		return DefaultDevices(), DefaultCommands(), nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultDevices(), DefaultCommands(), nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading device table: %w", err)
	}

	var table deviceTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, nil, fmt.Errorf("parsing device table: %w", err)
	}
	devices := table.Devices
	if len(devices) == 0 {
		devices = DefaultDevices()
	}
	commands := table.Commands
	if len(commands) == 0 {
		commands = DefaultCommands()
	}
	return devices, commands, nil
}

// RegisterLabel formats a coil address for operator display.
func RegisterLabel(addr int) string {
	return fmt.Sprintf("M0x%04X", addr)
}
