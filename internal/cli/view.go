package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pagefold/marginalia/pkg/layout"
	"github.com/pagefold/marginalia/pkg/outline"
	"github.com/pagefold/marginalia/pkg/pipeline"
	"github.com/pagefold/marginalia/pkg/state"
	"github.com/pagefold/marginalia/pkg/view"
)

// Terminal cell size in canvas units. A cell row holds one text line at
// the default metrics; columns are roughly half as wide as rows.
const (
	cellW = 9.0
	cellH = 18.0
)

// panStep is the keyboard pan distance in cells.
const panStep = 4

// viewCommand creates the "view" command.
func (c *CLI) viewCommand() *cobra.Command {
	opts := pipeline.Options{}
	c.setCLIDefaults(&opts)

	var (
		noCache bool
		noState bool
	)

	cmd := &cobra.Command{
		Use:   "view <document>",
		Short: "Browse a document's mind map in the terminal",
		Long: `View opens the mind map in an interactive terminal UI.

Keys:
  tab / shift+tab   select the next / previous node
  enter, space      collapse or expand the selected chapter
  e                 expand or clamp the selected note's text
  a                 add a note under the selected node
  P                 promote the selected note to a chapter (and back)
  D                 delete the selected annotation
  arrows, hjkl      pan the canvas
  +, -, 0           zoom in, out, reset
  s                 save
  q                 save and quit

With a mouse, click toggles collapse, press-and-hold then drag moves a
node under a new parent, and dragging empty canvas pans.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			opts.Path = args[0]
			opts.Logger = loggerFromContext(ctx)

			var store state.Store
			if !noState {
				s, err := c.newStateStore(ctx)
				if err != nil {
					return err
				}
				defer s.Close()
				store = s
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			m, err := newViewModel(ctx, runner, store, opts)
			if err != nil {
				return err
			}

			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
			final, err := p.Run()
			if err != nil {
				return err
			}
			if fm, ok := final.(viewModel); ok && fm.saveErr != nil {
				return fm.saveErr
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "source format (pdf, markdown, html, docx); detected from the extension if empty")
	cmd.Flags().BoolVar(&noState, "no-state", false, "read-only session, ignore and never touch stored state")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the pipeline cache")

	return cmd
}

// =============================================================================
// Model
// =============================================================================

// tickMsg drives the press-and-hold countdown while a gesture is live.
type tickMsg time.Time

func gestureTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// viewModel is the bubbletea model for the interactive viewer.
type viewModel struct {
	ctx   context.Context
	store state.Store // nil in read-only sessions
	st    *state.DocState

	doc  *pipeline.DocumentInfo
	tree *outline.Tree
	sess *view.Session
	ctrl *view.Controller

	width  int
	height int

	selectedID string

	input     textinput.Model
	inputMode bool

	status  string
	dirty   bool
	saveErr error
}

// newViewModel loads the document and state and builds the initial model.
func newViewModel(ctx context.Context, runner *pipeline.Runner, store state.Store, opts pipeline.Options) (viewModel, error) {
	doc, err := runner.Load(ctx, opts)
	if err != nil {
		return viewModel{}, err
	}

	st := state.New(state.DocumentID(opts.Path), doc.Title)
	if store != nil {
		loaded, err := loadDocState(ctx, store, opts.Path, doc.Title)
		if err != nil {
			return viewModel{}, err
		}
		st = loaded
	}

	tree, err := outline.Build(doc.Title, doc.Outline, st.Items, st.Moves)
	if err != nil {
		return viewModel{}, err
	}

	sess := view.NewSession(opts.LayoutOptions())
	sess.Restore(st.View.Collapsed, st.View.Expanded)
	sess.Pan = view.Point{X: st.View.PanX, Y: st.View.PanY}
	if st.View.Zoom > 0 {
		sess.Zoom = st.View.Zoom
	}

	ctrl := view.NewController(tree, sess)
	// Terminal mice report motion in whole cells; a one-cell jitter must
	// not cancel a pending drag.
	ctrl.MoveThreshold = cellW * 1.5

	input := textinput.New()
	input.Placeholder = "note text"
	input.CharLimit = 280
	input.Prompt = "note> "

	return viewModel{
		ctx:   ctx,
		store: store,
		st:    st,
		doc:   doc,
		tree:  tree,
		sess:  sess,
		ctrl:  ctrl,
		input: input,
	}, nil
}

func (m viewModel) Init() tea.Cmd {
	return nil
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		m.ctrl.Tick(time.Time(msg))
		if m.ctrl.Phase() != view.PhaseIdle {
			return m, gestureTick()
		}
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		if m.inputMode {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

// updateInput handles keys while the note input is open.
func (m viewModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputMode = false
		m.input.Blur()
		m.input.SetValue("")
		return m, nil
	case "enter":
		text := strings.TrimSpace(m.input.Value())
		m.inputMode = false
		m.input.Blur()
		m.input.SetValue("")
		if text != "" {
			m.addNote(text)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateKeys handles normal-mode keyboard input.
func (m viewModel) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.save()
		return m, tea.Quit

	case "left", "h":
		m.sess.PanBy(panStep*cellW, 0)
	case "right", "l":
		m.sess.PanBy(-panStep*cellW, 0)
	case "up", "k":
		m.sess.PanBy(0, panStep*cellH)
	case "down", "j":
		m.sess.PanBy(0, -panStep*cellH)

	case "+", "=":
		m.zoomBy(1.25)
	case "-", "_":
		m.zoomBy(0.8)
	case "0":
		if m.sess.Zoom != 0 {
			m.zoomBy(1 / m.sess.Zoom)
		}

	case "tab":
		m.selectNext(1)
	case "shift+tab":
		m.selectNext(-1)

	case "enter", " ":
		if m.selectedID != "" {
			if err := m.sess.ToggleCollapse(m.tree, m.selectedID); err != nil {
				m.status = err.Error()
			} else {
				m.markViewDirty()
			}
		}

	case "e":
		m.toggleNote()

	case "a":
		if m.store == nil {
			m.status = "read-only session"
			return m, nil
		}
		m.inputMode = true
		m.input.Focus()
		return m, textinput.Blink

	case "P":
		m.toggleStructural()

	case "D":
		m.deleteSelected()

	case "s":
		m.save()
		if m.saveErr == nil && m.store != nil {
			m.status = "saved"
		}
	}
	return m, nil
}

// updateMouse feeds pointer events through the gesture controller.
func (m viewModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	now := time.Now()
	x, y := float64(msg.X)*cellW, float64(msg.Y)*cellH

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.sess.PanBy(0, 3*cellH)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.sess.PanBy(0, -3*cellH)
		return m, nil
	}

	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionMotion && msg.Action != tea.MouseActionRelease {
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		m.ctrl.Press(now, x, y)
		return m, gestureTick()

	case tea.MouseActionMotion:
		m.ctrl.Move(now, x, y)

	case tea.MouseActionRelease:
		act := m.ctrl.Release(now, x, y)
		switch act.Kind {
		case view.ActionClick:
			m.selectedID = act.NodeID
			if err := m.sess.ToggleCollapse(m.tree, act.NodeID); err != nil {
				m.status = err.Error()
			} else {
				m.markViewDirty()
			}
		case view.ActionMoved:
			// The controller already applied the reparent; record it.
			if m.st.Moves == nil {
				m.st.Moves = make(map[string]string)
			}
			m.st.Moves[act.NodeID] = act.TargetID
			m.dirty = true
			m.status = "moved"
		}
	}
	return m, nil
}

// =============================================================================
// Mutations
// =============================================================================

// markViewDirty flags collapse and pan changes for the next save.
func (m *viewModel) markViewDirty() {
	m.dirty = true
	m.status = ""
}

func (m *viewModel) zoomBy(factor float64) {
	center := view.Point{
		X: float64(m.width) / 2 * cellW,
		Y: float64(m.gridHeight()) / 2 * cellH,
	}
	if err := m.sess.ZoomAt(m.tree, center, factor); err != nil {
		m.status = err.Error()
		return
	}
	m.markViewDirty()
}

// selectNext moves the selection through the visible nodes in display order.
func (m *viewModel) selectNext(step int) {
	res, err := m.sess.Layout(m.tree)
	if err != nil || len(res.Nodes) == 0 {
		return
	}

	idx := -1
	for i := range res.Nodes {
		if res.Nodes[i].ID == m.selectedID {
			idx = i
			break
		}
	}
	idx = (idx + step + len(res.Nodes)) % len(res.Nodes)
	m.selectedID = res.Nodes[idx].ID
	m.scrollTo(&res.Nodes[idx])
}

// scrollTo pans just enough to bring a node fully on screen.
func (m *viewModel) scrollTo(n *layout.Node) {
	w := float64(m.width) * cellW
	h := float64(m.gridHeight()) * cellH

	p := m.sess.ToScreen(view.Point{X: n.X, Y: n.Y})
	if p.X < 0 {
		m.sess.PanBy(-p.X+cellW, 0)
	} else if p.X+n.W > w {
		m.sess.PanBy(w-(p.X+n.W)-cellW, 0)
	}
	if p.Y < 0 {
		m.sess.PanBy(0, -p.Y+cellH)
	} else if p.Y+n.H > h {
		m.sess.PanBy(0, h-(p.Y+n.H)-cellH)
	}
}

func (m *viewModel) toggleNote() {
	if m.selectedID == "" {
		return
	}
	n, ok := m.tree.Node(m.selectedID)
	if !ok || n.Kind != outline.KindNote {
		m.status = "not a note"
		return
	}
	if err := m.sess.ToggleNote(m.tree, m.selectedID); err != nil {
		m.status = err.Error()
		return
	}
	m.markViewDirty()
}

// addNote appends an annotation under the selected node and rebuilds.
func (m *viewModel) addNote(text string) {
	it := outline.Item{
		ID:     uuid.NewString(),
		Text:   text,
		Origin: outline.OriginUser,
	}
	if m.selectedID != "" && m.selectedID != outline.RootID {
		it.ParentID = m.selectedID
	}
	m.st.Items = append(m.st.Items, it)
	m.rebuild()
	m.selectedID = it.ID
	m.status = "note added"
}

// toggleStructural promotes the selected annotation to a chapter or back.
func (m *viewModel) toggleStructural() {
	if m.store == nil {
		m.status = "read-only session"
		return
	}
	it, ok := m.st.Item(m.selectedID)
	if !ok {
		m.status = "not an annotation"
		return
	}
	it.Structural = !it.Structural
	if !it.Structural {
		it.ChapterTitle = false
	}
	m.rebuild()
	if it.Structural {
		m.status = "promoted to chapter"
	} else {
		m.status = "demoted to note"
	}
}

// deleteSelected removes the selected annotation from the stored state.
func (m *viewModel) deleteSelected() {
	if m.store == nil {
		m.status = "read-only session"
		return
	}
	if _, ok := m.st.Item(m.selectedID); !ok {
		m.status = "not an annotation"
		return
	}
	m.st.RemoveItem(m.selectedID)
	delete(m.st.Moves, m.selectedID)
	m.selectedID = ""
	m.rebuild()
	m.status = "deleted"
}

// rebuild remerges the tree after a state mutation.
func (m *viewModel) rebuild() {
	tree, err := outline.Build(m.doc.Title, m.doc.Outline, m.st.Items, m.st.Moves)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.tree = tree
	m.ctrl.SetTree(tree)
	m.dirty = true
}

// save persists annotations, moves, and the view state.
func (m *viewModel) save() {
	if m.store == nil {
		return
	}
	m.st.View = state.ViewState{
		Collapsed: m.sess.CollapsedIDs(),
		Expanded:  m.sess.ExpandedNoteIDs(),
		PanX:      m.sess.Pan.X,
		PanY:      m.sess.Pan.Y,
		Zoom:      m.sess.Zoom,
	}
	m.st.Touch()
	if err := m.store.Set(m.ctx, m.st); err != nil {
		m.saveErr = fmt.Errorf("save state: %w", err)
		return
	}
	m.dirty = false
}

func (m viewModel) gridHeight() int {
	h := m.height - 2
	if h < 1 {
		return 1
	}
	return h
}
