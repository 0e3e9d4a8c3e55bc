package picker_test

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/temirov/foldertree/internal/picker"
)

func newPickerModel(testingHandle *testing.T, startDirectory string) picker.Model {
	testingHandle.Helper()
	model, modelError := picker.NewModel(startDirectory)
	if modelError != nil {
		testingHandle.Fatalf("NewModel error: %v", modelError)
	}
	return model
}

func TestModelCancelKeysReturnNoSelection(testingHandle *testing.T) {
	testCases := []struct {
		name       string
		keyMessage tea.KeyMsg
	}{
		{name: "escape", keyMessage: tea.KeyMsg{Type: tea.KeyEsc}},
		{name: "ctrl+c", keyMessage: tea.KeyMsg{Type: tea.KeyCtrlC}},
		{name: "q", keyMessage: tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}},
	}

	for _, testCase := range testCases {
		testCase := testCase
		testingHandle.Run(testCase.name, func(testingHandle *testing.T) {
			model := newPickerModel(testingHandle, testingHandle.TempDir())
			updatedModel, command := model.Update(testCase.keyMessage)
			if command == nil {
				testingHandle.Fatalf("cancel must quit the program")
			}
			if selectedPath, ok := updatedModel.(picker.Model).Selection(); ok || selectedPath != "" {
				testingHandle.Fatalf("expected no selection, got %q", selectedPath)
			}
		})
	}
}

func TestModelChoosesCurrentDirectory(testingHandle *testing.T) {
	startDirectory := testingHandle.TempDir()
	model := newPickerModel(testingHandle, startDirectory)

	updatedModel, command := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'.'}})
	if command == nil {
		testingHandle.Fatalf("choosing must quit the program")
	}
	selectedPath, ok := updatedModel.(picker.Model).Selection()
	if !ok || selectedPath != startDirectory {
		testingHandle.Fatalf("expected %s to be selected, got %q (%t)", startDirectory, selectedPath, ok)
	}
	if view := updatedModel.View(); view != "" {
		testingHandle.Fatalf("view must be cleared after a choice, got %q", view)
	}
}

func TestModelViewShowsCurrentDirectory(testingHandle *testing.T) {
	startDirectory := testingHandle.TempDir()
	model := newPickerModel(testingHandle, startDirectory)

	view := model.View()
	if !strings.Contains(view, "Select a directory to render") || !strings.Contains(view, startDirectory) {
		testingHandle.Fatalf("unexpected view:\n%s", view)
	}
	if _, ok := model.Selection(); ok {
		testingHandle.Fatalf("nothing is selected before any key press")
	}
}
