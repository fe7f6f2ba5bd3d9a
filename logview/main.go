package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/scalelog/pkg/config"
	"github.com/itohio/scalelog/pkg/device"
	"github.com/itohio/scalelog/pkg/logfile"
	"github.com/itohio/scalelog/pkg/sample"
	"github.com/itohio/scalelog/pkg/scope"
	"github.com/itohio/scalelog/pkg/trend"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		fileFlag   = flag.String("file", "", "Log file to open on start")
		mockFlag   = flag.Bool("mock", false, "Use simulated device instead of serial port")
		smoothFlag = flag.Int("smooth", -1, "Moving average length (0 = disabled, overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *smoothFlag >= 0 {
		cfg.View.Smooth = *smoothFlag
	}

	application := app.NewWithID("com.itohio.scalelog")

	window := application.NewWindow("Scale Log")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		window:     window,
		useMock:    *mockFlag,
	}

	toolbar := createToolbar(state)

	state.scopeWidget = scope.New(cfg.View)
	state.newTrend()

	state.status = widget.NewLabel("")

	content := container.NewBorder(
		toolbar,
		state.status,
		nil,
		nil,
		state.scopeWidget,
	)

	if *fileFlag != "" {
		if err := state.loadFile(*fileFlag); err != nil {
			log.Printf("Failed to open %s: %v", *fileFlag, err)
		}
	}

	window.SetOnClosed(func() {
		closeChain(state.chain)
	})
	window.SetContent(content)
	window.ShowAndRun()
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	trend       *trend.Trend
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	status      *widget.Label
	connectBtn  *widget.Button
	rawBtn      *widget.Button
	useMock     bool

	device   device.Device
	chain    *liveChain // nil if not connected
	filePath string     // last opened log file

	throttle throttle
}

// newTrend replaces the trend with one built from the current view
// configuration and routes its updates to the scope.
func (s *appState) newTrend() {
	s.trend = trend.New(s.cfg.View)
	s.trend.OnUpdate(s.throttle.wrap(func(samples []sample.Sample, rates []float64, events []trend.Event) {
		fyne.Do(func() {
			s.scopeWidget.UpdateData(samples, rates, events)
		})
	}))
}

// createToolbar creates the toolbar with Open, Reload, Connect, Settings and Raw buttons.
func createToolbar(state *appState) fyne.CanvasObject {
	openBtn := widget.NewButtonWithIcon("", theme.FolderOpenIcon(), func() {
		showOpenDialog(state)
	})

	reloadBtn := widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), func() {
		if state.filePath == "" {
			return
		}
		if err := state.loadFile(state.filePath); err != nil {
			dialog.ShowError(err, state.window)
		}
	})

	connectBtn := widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})
	state.connectBtn = connectBtn

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	rawBtn := widget.NewButtonWithIcon("Raw", theme.InfoIcon(), func() {
		handleRawRequest(state)
	})
	rawBtn.Disable()
	state.rawBtn = rawBtn

	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(openBtn, reloadBtn, connectBtn, settingsBtn),
		container.NewHBox(rawBtn),
		nil,
	)
}

// showOpenDialog lets the user pick a log file copied from the SD card.
func showOpenDialog(state *appState) {
	d := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		if rc == nil {
			return
		}
		defer rc.Close()

		if err := state.load(rc, rc.URI().Name()); err != nil {
			dialog.ShowError(err, state.window)
			return
		}
		state.filePath = rc.URI().Path()
	}, state.window)
	d.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".txt"}))
	d.Show()
}

// loadFile reads a log file from disk into the trend.
func (s *appState) loadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer f.Close()

	if err := s.load(f, filepath.Base(path)); err != nil {
		return err
	}
	s.filePath = path
	return nil
}

func (s *appState) load(r io.Reader, name string) error {
	rows, err := logfile.ReadRows(r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}

	samples := sample.FromRows(rows, s.cfg.View.Column)
	s.trend.Load(samples)
	// The throttled callback may skip this update.
	s.scopeWidget.UpdateData(s.trend.Samples(), s.trend.Rates(), s.trend.Events())
	s.setStatus(fmt.Sprintf("%s: %d rows, %d samples", name, len(rows), len(samples)))
	return nil
}

func (s *appState) setStatus(text string) {
	if s.status != nil {
		s.status.SetText(text)
	}
	log.Print(text)
}
