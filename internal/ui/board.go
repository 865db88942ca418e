package ui

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Mohsinsiddi/w3fund/internal/aggregate"
)

// BoardFetcher loads a fresh campaign snapshot.
type BoardFetcher func() ([]aggregate.CampaignView, error)

// boardModel is the Bubble Tea model for the live campaign board. Data is
// refetched every interval; countdowns are recomputed every second from the
// fetched deadlines.
type boardModel struct {
	campaigns  []aggregate.CampaignView
	loaded     bool
	lastUpdate time.Time
	now        time.Time
	interval   time.Duration
	quitting   bool
	fetching   bool
	fetcher    BoardFetcher
	clock      func() time.Time
	err        string
}

type boardRefreshMsg time.Time
type boardSecondMsg time.Time
type campaignsFetchedMsg []aggregate.CampaignView
type campaignsErrorMsg string

// NewBoard creates a Bubble Tea program for the live campaign board.
func NewBoard(interval time.Duration, fetcher BoardFetcher) *tea.Program {
	return tea.NewProgram(newBoardModel(interval, fetcher, time.Now))
}

func newBoardModel(interval time.Duration, fetcher BoardFetcher, clock func() time.Time) boardModel {
	return boardModel{interval: interval, fetcher: fetcher, clock: clock, now: clock(), fetching: true}
}

func (m boardModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), refreshTick(m.interval), secondTick())
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if !m.fetching {
				m.fetching = true
				return m, m.fetchCmd()
			}
		}

	case boardRefreshMsg:
		if m.fetching {
			return m, refreshTick(m.interval)
		}
		m.fetching = true
		return m, tea.Batch(m.fetchCmd(), refreshTick(m.interval))

	case boardSecondMsg:
		m.now = time.Time(msg)
		return m, secondTick()

	case campaignsFetchedMsg:
		m.campaigns = []aggregate.CampaignView(msg)
		m.loaded = true
		m.fetching = false
		m.lastUpdate = m.clock()
		m.err = ""

	case campaignsErrorMsg:
		// Keep showing the previous snapshot.
		m.fetching = false
		m.err = string(msg)
	}

	return m, nil
}

func (m boardModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(StyleTitle.Render("Campaign Board") + "\n")
	updated := "never"
	if !m.lastUpdate.IsZero() {
		updated = m.lastUpdate.Format("15:04:05")
	}
	sb.WriteString(StyleMeta.Render(fmt.Sprintf("Updated: %s · r refresh · q quit\n\n", updated)))

	if m.err != "" {
		sb.WriteString(Err(m.err) + "\n")
	}

	switch {
	case !m.loaded:
		sb.WriteString(StyleMeta.Render("Loading...") + "\n")
	case len(m.campaigns) == 0:
		sb.WriteString(StyleMeta.Render("No campaigns yet. Create one with `w3fund campaign create`.") + "\n")
	default:
		sb.WriteString(CampaignTable(m.campaigns, m.now).Render())
	}
	return sb.String()
}

// CampaignTable lays out campaigns with countdowns taken at now.
func CampaignTable(campaigns []aggregate.CampaignView, now time.Time) *Table {
	t := NewTable([]Column{
		{Title: "Title", Width: 22},
		{Title: "Address", Width: 13},
		{Title: "Raised / Goal (ETH)", Width: 24, Right: true},
		{Title: "Progress", Width: 8, Right: true},
		{Title: "Time left", Width: 10},
	})
	for _, c := range campaigns {
		secs := aggregate.SecondsRemaining(c.Deadline.Unix(), now)
		left := aggregate.Countdown(secs)
		if secs == 0 {
			left = StyleError.Render("ended")
		}
		pct := Percent(c.Raised, c.Goal)
		if c.GoalMet() {
			pct = StyleSuccess.Render(pct)
		}
		t.AddRow(Row{
			c.Title,
			TruncateAddr(c.Address.Hex()),
			c.RaisedETH() + " / " + c.GoalETH(),
			pct,
			left,
		})
	}
	return t
}

func (m boardModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		views, err := m.fetcher()
		if err != nil {
			return campaignsErrorMsg(err.Error())
		}
		return campaignsFetchedMsg(views)
	}
}

func refreshTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return boardRefreshMsg(t)
	})
}

func secondTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return boardSecondMsg(t)
	})
}

// Percent is raised/goal as a whole percentage, "-" for a zero goal.
func Percent(raised, goal *big.Int) string {
	if goal == nil || goal.Sign() == 0 || raised == nil {
		return "-"
	}
	p := new(big.Int).Mul(raised, big.NewInt(100))
	return p.Quo(p, goal).String() + "%"
}
