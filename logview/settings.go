package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/scalelog/pkg/device"
)

// showSettingsDialog displays a settings dialog with tabs for all configuration options.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createViewTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 500))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

// saveConfig writes the configuration back to the file it was loaded from.
func saveConfig(state *appState) {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := device.Ports()
	portOptions := []string{}
	if err == nil {
		for _, port := range ports {
			portOptions = append(portOptions, port.Name)
		}
	}

	currentPort := state.cfg.Serial.Port
	found := false
	for _, opt := range portOptions {
		if opt == currentPort {
			found = true
			break
		}
	}
	if !found && currentPort != "" {
		portOptions = append(portOptions, currentPort)
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentPort != "" {
		portSelect.SetSelected(currentPort)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			if portSelect.Selected == "" {
				return
			}

			portChanged := state.cfg.Serial.Port != portSelect.Selected
			wasConnected := state.device != nil && state.device.IsConnected()

			state.cfg.Serial.Port = portSelect.Selected
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.BaudRate = baud
			}
			saveConfig(state)

			// Reconnect to the new port.
			if portChanged && wasConnected {
				handleConnect(state)
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createViewTab creates the trend display configuration tab.
func createViewTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(state.cfg.View.Window.String())

	columnEntry := widget.NewEntry()
	columnEntry.SetText(strconv.Itoa(state.cfg.View.Column))

	thresholdEntry := widget.NewEntry()
	thresholdEntry.SetText(fmt.Sprintf("%.2f", state.cfg.View.EventThreshold))

	minDurationEntry := widget.NewEntry()
	minDurationEntry.SetText(state.cfg.View.MinEventDuration.String())

	smoothEntry := widget.NewEntry()
	smoothEntry.SetText(strconv.Itoa(state.cfg.View.Smooth))

	maxPointsEntry := widget.NewEntry()
	maxPointsEntry.SetText(strconv.Itoa(state.cfg.View.MaxPoints))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window", Widget: windowEntry},
			{Text: "Column", Widget: columnEntry},
			{Text: "Event Threshold (per hour)", Widget: thresholdEntry},
			{Text: "Min Event Duration", Widget: minDurationEntry},
			{Text: "Smooth (0=disabled)", Widget: smoothEntry},
			{Text: "Max Points", Widget: maxPointsEntry},
		},
		OnSubmit: func() {
			if w, err := time.ParseDuration(windowEntry.Text); err == nil && w > 0 {
				state.cfg.View.Window = w
			}
			if c, err := strconv.Atoi(columnEntry.Text); err == nil && c >= 0 {
				state.cfg.View.Column = c
			}
			if th, err := strconv.ParseFloat(thresholdEntry.Text, 64); err == nil {
				state.cfg.View.EventThreshold = th
			}
			if d, err := time.ParseDuration(minDurationEntry.Text); err == nil {
				state.cfg.View.MinEventDuration = d
			}
			if s, err := strconv.Atoi(smoothEntry.Text); err == nil && s >= 0 {
				state.cfg.View.Smooth = s
			}
			if mp, err := strconv.Atoi(maxPointsEntry.Text); err == nil && mp > 0 {
				state.cfg.View.MaxPoints = mp
			}
			saveConfig(state)

			// Rebuild the trend with the new window and threshold.
			wasConnected := state.device != nil && state.device.IsConnected()
			if wasConnected {
				handleConnect(state)
			}
			samples := state.trend.Samples()
			state.newTrend()
			state.scopeWidget.SetView(state.cfg.View)
			state.trend.Load(samples)
			if wasConnected {
				handleConnect(state)
			}
		},
	}

	return container.NewTabItem("View", form)
}

// createMockTab creates the simulated device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	loadEntry := widget.NewEntry()
	loadEntry.SetText(fmt.Sprintf("%.2f", state.cfg.Mock.Load))

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.Noise))

	driftEntry := widget.NewEntry()
	driftEntry.SetText(fmt.Sprintf("%.3f", state.cfg.Mock.DriftPerHour))

	rowIntervalEntry := widget.NewEntry()
	rowIntervalEntry.SetText(state.cfg.Mock.RowInterval.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Load", Widget: loadEntry},
			{Text: "Noise (raw counts)", Widget: noiseEntry},
			{Text: "Drift per Hour", Widget: driftEntry},
			{Text: "Row Interval", Widget: rowIntervalEntry},
		},
		OnSubmit: func() {
			if l, err := strconv.ParseFloat(loadEntry.Text, 64); err == nil {
				state.cfg.Mock.Load = l
			}
			if n, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				state.cfg.Mock.Noise = n
			}
			if d, err := strconv.ParseFloat(driftEntry.Text, 64); err == nil {
				state.cfg.Mock.DriftPerHour = d
			}
			if ri, err := time.ParseDuration(rowIntervalEntry.Text); err == nil && ri > 0 {
				state.cfg.Mock.RowInterval = ri
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}
