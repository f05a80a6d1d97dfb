package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/pittjames/golrt/pkg/lrt"
	"github.com/pittjames/golrt/pkg/rig"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createSensorsTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(500, 400))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(500, 400))
	d.Show()
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	// Get available serial ports
	ports, err := lrt.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // Map display name to actual port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	// Add current port if not in list
	currentPort := state.cfg.Serial.Port
	currentDisplay := currentPort
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == currentPort {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
		portMap[currentPort] = currentPort
		currentDisplay = currentPort
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudSelect := widget.NewSelect([]string{"9600", "19200", "38400", "57600", "115200"}, nil)
	baudSelect.SetSelected(strconv.Itoa(state.cfg.Serial.Baud))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudSelect},
		},
		OnSubmit: func() {
			changed := false
			if portSelect.Selected != "" {
				selectedPort := portMap[portSelect.Selected]
				if selectedPort == "" {
					selectedPort = portSelect.Selected // Fallback to selected text
				}
				if selectedPort != state.cfg.Serial.Port {
					state.cfg.Serial.Port = selectedPort
					changed = true
				}
			}
			if baud, err := strconv.Atoi(baudSelect.Selected); err == nil && baud != state.cfg.Serial.Baud {
				state.cfg.Serial.Baud = baud
				changed = true
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
				return
			}

			// Reconnect on the new port if the device was in use.
			if changed && state.device != nil && state.device.IsConnected() {
				handleConnect(state) // disconnect
				handleConnect(state) // reconnect with the new settings
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createSensorsTab creates the per-sensor pin and debounce tab. Pin
// changes are pushed to the connected device immediately; the device
// answers with a configuration push that confirms (or, for a rejected
// pin, restores) the mapping shown in the UI.
func createSensorsTab(state *appState) *container.TabItem {
	pinOptions := make([]string, 0, rig.MaxPin-rig.MinPin+1)
	for p := rig.MinPin; p <= rig.MaxPin; p++ {
		pinOptions = append(pinOptions, strconv.Itoa(int(p)))
	}
	debounceOptions := []string{"200ms", "500ms", "1s", "1.5s"}

	items := []*widget.FormItem{}
	pinSelects := make([]*widget.Select, len(state.cfg.Sensors))
	debounceSelects := make([]*widget.Select, len(state.cfg.Sensors))

	for i := range state.cfg.Sensors {
		sensor := &state.cfg.Sensors[i]

		pinSelect := widget.NewSelect(pinOptions, nil)
		pinSelect.SetSelected(strconv.Itoa(sensor.Pin))
		pinSelects[i] = pinSelect

		debounceSelect := widget.NewSelect(debounceOptions, nil)
		debounceSelect.SetSelected(sensor.Debounce.String())
		debounceSelects[i] = debounceSelect

		items = append(items,
			&widget.FormItem{Text: fmt.Sprintf("%s Pin", sensor.Name), Widget: pinSelect},
			&widget.FormItem{Text: fmt.Sprintf("%s Debounce", sensor.Name), Widget: debounceSelect},
		)
	}

	form := &widget.Form{
		Items: items,
		OnSubmit: func() {
			for i := range state.cfg.Sensors {
				sensor := &state.cfg.Sensors[i]

				if pin, err := strconv.Atoi(pinSelects[i].Selected); err == nil && pin != sensor.Pin {
					sensor.Pin = pin
					if state.device != nil && state.device.IsConnected() {
						if err := state.device.Remap(i, pin); err != nil {
							dialog.ShowError(fmt.Errorf("failed to remap %s: %w", sensor.Name, err), state.window)
						}
					}
				}
				if d, err := time.ParseDuration(debounceSelects[i].Selected); err == nil {
					sensor.Debounce = d
				}
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
				return
			}
			state.machine.SetDebounce(state.cfg)
			refreshStatus(state)
		},
	}

	return container.NewTabItem("Sensors", form)
}

// createMockTab creates the Mock device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	periodEntry := widget.NewEntry()
	periodEntry.SetText(state.cfg.Mock.Period.String())

	holdEntry := widget.NewEntry()
	holdEntry.SetText(state.cfg.Mock.Hold.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Crossing Period", Widget: periodEntry},
			{Text: "Beam Hold Time", Widget: holdEntry},
		},
		OnSubmit: func() {
			if p, err := time.ParseDuration(periodEntry.Text); err == nil {
				state.cfg.Mock.Period = p
			}
			if h, err := time.ParseDuration(holdEntry.Text); err == nil {
				state.cfg.Mock.Hold = h
			}
			if err := state.cfg.Save("config.yaml"); err != nil {
				dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
			}
		},
	}

	return container.NewTabItem("Mock", form)
}
