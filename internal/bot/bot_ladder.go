package bot

import (
	"fmt"
	"io"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/back"
	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/util"

	"github.com/bwmarrin/discordgo"
)

func (bot *Bot) cmdRegister(m *discordgo.Message, _ []string, w io.Writer) error {
	player, err := bot.back.Register(m.Author.ID, m.Author.Username)
	if err != nil {
		return err
	}

	fmt.Fprintf(
		w,
		"<@%s>, you have been registered with a starting rating of %.0f.",
		m.Author.ID, player.Rating,
	)
	return nil
}

func (bot *Bot) cmdReport(m *discordgo.Message, args []string, w io.Writer) error {
	if len(args) < 1 {
		return util.ErrPublic("you forgot the result, use `$rep w|l|d @opponent`")
	}
	opponent, err := mentionedUser(m)
	if err != nil {
		return err
	}

	summary, err := bot.back.ReportResult(m.Author.ID, opponent.ID, args[0])
	if err != nil {
		return err
	}

	if !summary.Confirmed {
		fmt.Fprintf(
			w,
			"Match reported: <@%s> vs <@%s>. Awaiting confirmation from <@%s>, the report expires in %s.",
			m.Author.ID, opponent.ID, opponent.ID,
			util.FormatDuration(summary.ExpiresIn),
		)
		return nil
	}

	fmt.Fprintf(w, "Match confirmed and reported: <@%s> vs <@%s>\n", m.Author.ID, opponent.ID)
	writeStatsBlock(w, fmt.Sprintf("<@%s>", m.Author.ID), summary.Reporter)
	fmt.Fprint(w, "\n")
	writeStatsBlock(w, fmt.Sprintf("<@%s>", opponent.ID), summary.Opponent)

	return nil
}

func (bot *Bot) cmdCancel(m *discordgo.Message, _ []string, w io.Writer) error {
	opponent, err := mentionedUser(m)
	if err != nil {
		return err
	}

	if err := bot.back.CancelPending(m.Author.ID, opponent.ID); err != nil {
		return err
	}

	fmt.Fprintf(
		w,
		"<@%s>, your pending match report against <@%s> has been canceled.",
		m.Author.ID, opponent.ID,
	)
	return nil
}

func (bot *Bot) cmdStats(m *discordgo.Message, _ []string, w io.Writer) error {
	stats, err := bot.back.GetPlayerStats(m.Author.ID)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "<@%s>, here are your stats:\n", m.Author.ID)
	writeStatsBlock(w, "", stats)
	if stats.LastMatchAt.Valid {
		fmt.Fprintf(w, "\nLast match: %s", util.Datetime(stats.LastMatchAt.Time))
	}

	return nil
}

func (bot *Bot) cmdLeaderboard(m *discordgo.Message, args []string, w io.Writer) error {
	return bot.writeLeaderboard(m, args, back.LeaderboardScopeActive, w)
}

func (bot *Bot) cmdStaleLeaderboard(m *discordgo.Message, args []string, w io.Writer) error {
	return bot.writeLeaderboard(m, args, back.LeaderboardScopeStale, w)
}

func (bot *Bot) writeLeaderboard(
	m *discordgo.Message,
	args []string,
	scope back.LeaderboardScope,
	w io.Writer,
) error {
	var aroundRank int
	if len(args) > 0 {
		if _, err := fmt.Sscanf(args[0], "%d", &aroundRank); err != nil || aroundRank < 1 {
			return util.ErrPublic(fmt.Sprintf("`%s` is not a valid rank", args[0]))
		}
	}

	board, err := bot.back.GetLeaderboard(m.Author.ID, scope, aroundRank)
	if err != nil {
		return err
	}

	if scope == back.LeaderboardScopeActive {
		fmt.Fprint(w, "Leaderboard (last 3 months):\n")
	} else {
		fmt.Fprint(w, "Leaderboard:\n")
	}

	for _, e := range board.Top {
		fmt.Fprintf(w, "%d. %s %.1f%s\n", e.Rank, e.Name, e.Rating, marker(e.Provisional))
	}

	if len(board.Neighborhood) > 0 {
		fmt.Fprint(w, "\n")
		for _, e := range board.Neighborhood {
			fmt.Fprintf(w, "%d. %s %.1f%s\n", e.Rank, e.Name, e.Rating, marker(e.Provisional))
		}
	}

	if !board.CallerEligible {
		fmt.Fprintf(
			w,
			"\nYou must report at least %d rated matches to be placed on the leaderboard.",
			back.LeaderboardEligibilityThreshold,
		)
	}

	return nil
}

func (bot *Bot) cmdLooking(m *discordgo.Message, _ []string, w io.Writer) error {
	if m.GuildID == "" {
		return util.ErrPublic("this command only works inside a server channel")
	}

	roles, err := bot.dg.GuildRoles(m.GuildID)
	if err != nil {
		return err
	}

	var roleID string
	for _, v := range roles {
		if v.Name == "Looking" {
			roleID = v.ID
			break
		}
	}
	if roleID == "" {
		return util.ErrPublic("there is no `Looking` role on this server")
	}

	member, err := bot.dg.GuildMember(m.GuildID, m.Author.ID)
	if err != nil {
		return err
	}

	for _, v := range member.Roles {
		if v == roleID {
			if err := bot.dg.GuildMemberRoleRemove(m.GuildID, m.Author.ID, roleID); err != nil {
				return err
			}

			fmt.Fprintf(w, "<@%s> is no longer looking for a match.", m.Author.ID)
			return nil
		}
	}

	if err := bot.dg.GuildMemberRoleAdd(m.GuildID, m.Author.ID, roleID); err != nil {
		return err
	}

	fmt.Fprintf(w, "<@%s> is now looking for a match.", m.Author.ID)
	return nil
}

func mentionedUser(m *discordgo.Message) (*discordgo.User, error) {
	if len(m.Mentions) < 1 {
		return nil, util.ErrPublic("you forgot to mention your opponent")
	}

	return m.Mentions[0], nil
}

// writeStatsBlock renders the recap shown after a confirmed match and in
// $stats, with the provisional marker next to uncertain ratings.
func writeStatsBlock(w io.Writer, header string, stats back.PlayerStats) {
	if header != "" {
		fmt.Fprintf(w, "%s:\n", header)
	}

	fmt.Fprintf(w, "Rating: %.1f%s\n", stats.Rating, marker(stats.Provisional))
	fmt.Fprintf(w, "Wins: %d | Losses: %d | Draws: %d", stats.Wins, stats.Losses, stats.Draws)
}

func marker(provisional bool) string {
	if provisional {
		return "?"
	}

	return ""
}
