package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mcoot/territorybattle/internal/api/response"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case *response.HealthResponse:
		fmt.Fprintf(o.w, "Status: %s (%s %s)\n", v.Status, v.Service, v.Version)
	case *response.Player:
		o.printPlayer(v)
	case *response.SubmitGameResponse:
		fmt.Fprintln(o.w, v.Message)
		o.printPlayer(&v.Player)
	case *response.PlayerDetail:
		o.printPlayerDetail(v)
	case *response.LeaderboardResponse:
		o.printLeaderboard(v)
	case []response.WinsEntry:
		o.printWins(v)
	case []response.ScoreEntry:
		o.printScores(v)
	case []response.RecentGame:
		o.printRecentGames(v)
	case *response.Stats:
		fmt.Fprintf(o.w, "Players: %d  Games: %d  Wins: %d\n", v.TotalPlayers, v.TotalGames, v.TotalWins)
	case []QueuedGame:
		o.printQueue(v)
	case FlushResult:
		fmt.Fprintf(o.w, "Sent: %d  Rejected: %d  Pending: %d\n", v.Sent, v.Rejected, v.Pending)
	default:
		o.printJSON(data)
	}
}

func (o *Output) printPlayer(p *response.Player) {
	fmt.Fprintf(o.w, "Player: %s (ID: %d)\n", p.Pseudo, p.ID)
	fmt.Fprintf(o.w, "Wins: %d / %d games\n", p.Wins, p.GamesPlayed)
	fmt.Fprintf(o.w, "Score: %d total, %d best\n", p.TotalScore, p.BestScore)
}

func (o *Output) printPlayerDetail(p *response.PlayerDetail) {
	o.printPlayer(&p.Player)
	fmt.Fprintf(o.w, "Rank: #%d\n", p.Rank)

	if len(p.RecentGames) == 0 {
		return
	}

	fmt.Fprintln(o.w, "\nRecent games:")
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  PLAYED\tSCORE\tTERRITORIES\tTURNS\tRESULT")
	for _, g := range p.RecentGames {
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%d\t%s\n", g.PlayedAt, g.Score, g.TerritoriesConquered, g.TurnsPlayed, result(g.Won))
	}
	_ = tw.Flush()
}

func (o *Output) printLeaderboard(l *response.LeaderboardResponse) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPSEUDO\tWINS\tGAMES\tWIN %\tBEST\tTOTAL")
	for _, e := range l.Leaderboard {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.1f\t%d\t%d\n", e.Rank, e.Pseudo, e.Wins, e.GamesPlayed, e.WinRate, e.BestScore, e.TotalScore)
	}
	_ = tw.Flush()

	fmt.Fprintf(o.w, "\n%d players, %d games, %d wins\n", l.Stats.TotalPlayers, l.Stats.TotalGames, l.Stats.TotalWins)
	if l.Pagination.HasMore {
		fmt.Fprintf(o.w, "More: --offset %d\n", l.Pagination.Offset+l.Pagination.Limit)
	}
}

func (o *Output) printWins(entries []response.WinsEntry) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPSEUDO\tWINS\tGAMES\tWIN %")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.1f\n", i+1, e.Pseudo, e.Wins, e.GamesPlayed, e.WinRate)
	}
	_ = tw.Flush()
}

func (o *Output) printScores(entries []response.ScoreEntry) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tPSEUDO\tBEST\tTOTAL\tGAMES")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\n", i+1, e.Pseudo, e.BestScore, e.TotalScore, e.GamesPlayed)
	}
	_ = tw.Flush()
}

func (o *Output) printRecentGames(games []response.RecentGame) {
	if len(games) == 0 {
		fmt.Fprintln(o.w, "No games yet")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAYED\tPSEUDO\tSCORE\tTERRITORIES\tRESULT")
	for _, g := range games {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", g.PlayedAt, g.Pseudo, g.Score, g.TerritoriesConquered, result(g.Won))
	}
	_ = tw.Flush()
}

func (o *Output) printQueue(entries []QueuedGame) {
	if len(entries) == 0 {
		fmt.Fprintln(o.w, "Queue is empty")
		return
	}

	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUEUED\tPSEUDO\tSCORE\tRESULT")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.QueuedAt.Format(response.PlayedAtLayout), e.Game.Pseudo, e.Game.Score, result(e.Game.Won))
	}
	_ = tw.Flush()
}

func result(won bool) string {
	if won {
		return "won"
	}
	return "lost"
}
