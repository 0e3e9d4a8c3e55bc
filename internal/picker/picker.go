// Package picker lets a user choose the root directory interactively in the terminal.
package picker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	titleText            = "Select a directory to render"
	helpText             = "enter: open/select  .: choose current  esc/q: cancel"
	errorRunPickerFormat = "run directory picker: %w"
	errorStartDirFormat  = "resolve start directory %s: %w"
	pickerHeight         = 15
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	currentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Faint(true)
)

type keyMap struct {
	Cancel        key.Binding
	ChooseCurrent key.Binding
}

var defaultKeyMap = keyMap{
	Cancel:        key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc/q", "cancel")),
	ChooseCurrent: key.NewBinding(key.WithKeys("."), key.WithHelp(".", "choose current directory")),
}

// Model is the Bubble Tea model of the directory picker.
type Model struct {
	filePicker   filepicker.Model
	keys         keyMap
	selectedPath string
	cancelled    bool
}

// NewModel returns a picker that starts browsing at startDirectory.
func NewModel(startDirectory string) (Model, error) {
	absoluteStartDirectory, absoluteError := filepath.Abs(startDirectory)
	if absoluteError != nil {
		return Model{}, fmt.Errorf(errorStartDirFormat, startDirectory, absoluteError)
	}
	directoryPicker := filepicker.New()
	directoryPicker.CurrentDirectory = absoluteStartDirectory
	directoryPicker.DirAllowed = true
	directoryPicker.FileAllowed = false
	directoryPicker.ShowHidden = true
	directoryPicker.Height = pickerHeight
	return Model{filePicker: directoryPicker, keys: defaultKeyMap}, nil
}

// Init starts reading the initial directory.
func (model Model) Init() tea.Cmd {
	return model.filePicker.Init()
}

// Update handles key presses and directory listings.
func (model Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	if keyMessage, isKey := message.(tea.KeyMsg); isKey {
		switch {
		case key.Matches(keyMessage, model.keys.Cancel):
			model.cancelled = true
			return model, tea.Quit
		case key.Matches(keyMessage, model.keys.ChooseCurrent):
			model.selectedPath = model.filePicker.CurrentDirectory
			return model, tea.Quit
		}
	}

	var command tea.Cmd
	model.filePicker, command = model.filePicker.Update(message)
	if didSelect, selectedPath := model.filePicker.DidSelectFile(message); didSelect {
		model.selectedPath = selectedPath
		return model, tea.Quit
	}
	return model, command
}

// View renders the picker.
func (model Model) View() string {
	if model.cancelled || model.selectedPath != "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString(titleStyle.Render(titleText) + "\n")
	builder.WriteString(currentStyle.Render(model.filePicker.CurrentDirectory) + "\n\n")
	builder.WriteString(model.filePicker.View() + "\n")
	builder.WriteString(helpStyle.Render(helpText) + "\n")
	return builder.String()
}

// Selection reports the chosen directory. ok is false when the user cancelled.
func (model Model) Selection() (string, bool) {
	if model.cancelled || model.selectedPath == "" {
		return "", false
	}
	return model.selectedPath, true
}

// Pick runs the picker on the terminal and returns the chosen directory.
// ok is false when the user cancels or ctx ends first.
func Pick(ctx context.Context, startDirectory string) (string, bool, error) {
	initialModel, modelError := NewModel(startDirectory)
	if modelError != nil {
		return "", false, modelError
	}
	program := tea.NewProgram(initialModel, tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	finalModel, runError := program.Run()
	if runError != nil {
		if errors.Is(runError, tea.ErrProgramKilled) && ctx.Err() != nil {
			return "", false, nil
		}
		return "", false, fmt.Errorf(errorRunPickerFormat, runError)
	}
	pickerModel, isPickerModel := finalModel.(Model)
	if !isPickerModel {
		return "", false, nil
	}
	selectedPath, ok := pickerModel.Selection()
	return selectedPath, ok, nil
}
