package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/pittjames/golrt/pkg/config"
	"github.com/pittjames/golrt/pkg/lrt"
	"github.com/pittjames/golrt/pkg/session"
	"github.com/pittjames/golrt/pkg/timeline"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use mocked device instead of serial port")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Override serial port if provided via command line
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}

	// Create Fyne application
	application := app.NewWithID("com.pittjames.golrt")

	// Create main window
	window := application.NewWindow("Ladder Rung Walking Test")
	window.Resize(fyne.NewSize(900, 700))
	window.CenterOnScreen()

	// Create application state
	state := &appState{
		cfg:     cfg,
		machine: session.New(cfg),
		window:  window,
		useMock: *mockFlag,
	}

	toolbar := createToolbar(state)
	trialBar := createTrialControls(state)
	statusPanel := createStatusPanel(state)

	timelineWidget := timeline.New(cfg)
	state.timeline = timelineWidget

	top := container.NewVBox(toolbar, trialBar, statusPanel)
	window.SetContent(container.NewBorder(top, nil, nil, nil, timelineWidget))

	// Repaint on every session change (trial transitions, events,
	// mapping updates). The callback fires on the reader goroutine, so
	// hop to the main thread.
	state.machine.OnUpdate(func() {
		fyne.Do(func() { refreshStatus(state) })
	})

	// Live trial timer and raster refresh at 10 Hz.
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			snapshot, ok := state.machine.Snapshot()
			if !ok {
				continue
			}
			fyne.Do(func() {
				state.timerLabel.SetText(fmt.Sprintf("Trial Time: %.2fs", time.Since(snapshot.StartedAt).Seconds()))
				state.timeline.ShowTrial(&snapshot)
			})
		}
	}()

	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg      *config.Config
	device   lrt.Device
	machine  *session.Machine
	timeline *timeline.Widget
	window   fyne.Window
	useMock  bool

	connectBtn  *widget.Button
	startBtn    *widget.Button
	endBtn      *widget.Button
	statusLabel *widget.Label
	trialLabel  *widget.Label
	timerLabel  *widget.Label
	countLabels []*widget.Label

	// Closed when the message drain goroutine exits.
	drainDone chan struct{}
}

// createToolbar creates the application toolbar with Connect, Settings
// and Export buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	exportBtn := widget.NewButtonWithIcon("", theme.DocumentSaveIcon(), func() {
		handleExport(state)
	})

	return container.NewHBox(connectBtn, settingsBtn, exportBtn)
}

// createTrialControls creates the Start/End trial buttons.
func createTrialControls(state *appState) fyne.CanvasObject {
	startBtn := widget.NewButtonWithIcon("Start Trial", theme.MediaPlayIcon(), func() {
		handleStartTrial(state)
	})
	startBtn.Disable()
	state.startBtn = startBtn

	endBtn := widget.NewButtonWithIcon("End Trial", theme.MediaStopIcon(), func() {
		handleEndTrial(state)
	})
	endBtn.Disable()
	state.endBtn = endBtn

	return container.NewHBox(startBtn, endBtn)
}

// createStatusPanel creates the status, trial and per-sensor count
// labels.
func createStatusPanel(state *appState) fyne.CanvasObject {
	state.statusLabel = widget.NewLabel("Status: Not Connected")
	state.trialLabel = widget.NewLabel("Current Trial: None")
	state.timerLabel = widget.NewLabel("Trial Time: 0.00s")

	counts := container.NewHBox()
	for _, name := range state.cfg.Names() {
		label := widget.NewLabel(fmt.Sprintf("%s: 0", name))
		state.countLabels = append(state.countLabels, label)
		counts.Add(label)
	}

	return container.NewVBox(
		container.NewHBox(state.statusLabel, state.trialLabel, state.timerLabel),
		counts,
	)
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		// Disconnect. Closing the device closes its message channel,
		// which lets the drain goroutine finish. An active trial stays
		// open on purpose: reconnecting resumes recording into it.
		if err := state.device.Close(); err != nil {
			log.Printf("Error closing device: %v", err)
		}
		if state.drainDone != nil {
			<-state.drainDone
			state.drainDone = nil
		}
		state.device = nil

		state.statusLabel.SetText("Status: Disconnected")
		state.startBtn.Disable()
		state.endBtn.Disable()
		return
	}

	// Connect
	var device lrt.Device
	if state.useMock {
		device = lrt.NewMock(&state.cfg.Mock)
	} else {
		device = lrt.New(state.cfg.Serial.Port, state.cfg.Serial.Baud, lrt.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to connect to mocked device: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}

	state.device = device
	state.drainDone = make(chan struct{})
	go func(done chan struct{}, dev lrt.Device) {
		defer close(done)
		state.machine.Run(dev.Messages())
	}(state.drainDone, device)

	if state.useMock {
		state.statusLabel.SetText("Status: Connected (mock)")
	} else {
		state.statusLabel.SetText(fmt.Sprintf("Status: Connected to %s", state.cfg.Serial.Port))
	}
	state.startBtn.Enable()
	state.endBtn.Enable()
}

// refreshStatus updates the labels and raster from the session state.
// Must run on the main thread.
func refreshStatus(state *appState) {
	state.timeline.SetMapping(state.machine.Mapping())

	counts := state.machine.Counts()
	names := state.cfg.Names()
	for i, label := range state.countLabels {
		c := 0
		if i < len(counts) {
			c = counts[i]
		}
		name := fmt.Sprintf("Sensor %d", i)
		if i < len(names) {
			name = names[i]
		}
		label.SetText(fmt.Sprintf("%s: %d", name, c))
	}
}
