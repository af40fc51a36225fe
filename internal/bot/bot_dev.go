package bot

import (
	"fmt"
	"io"
	"time"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/util"

	"github.com/bwmarrin/discordgo"
)

func (bot *Bot) cmdDev(m *discordgo.Message, args []string, out io.Writer) error {
	if !bot.isAdmin(m.Author.ID) {
		return fmt.Errorf("$dev command ran by a non-admin: %v", args)
	}
	if len(args) < 1 {
		return util.ErrPublic("need a subcommand")
	}

	switch args[0] { // nolint:gocritic, TODO
	case "panic":
		panic("an admin asked me to panic")
	case "uptime":
		fmt.Fprintf(out, "The bot has been online for %s", time.Since(bot.startedAt))
	case "error":
		return util.ErrPublic("here's your error")
	case "sweep":
		if err := bot.back.RunExpirySweep(time.Now()); err != nil {
			return err
		}
		fmt.Fprint(out, "Expired pending reports have been swept.")
	case "url":
		fmt.Fprintf(
			out,
			"https://discordapp.com/api/oauth2/authorize?client_id=%s&scope=bot&permissions=%d",
			bot.dg.State.User.ID,
			discordgo.PermissionReadMessages|discordgo.PermissionSendMessages|
				discordgo.PermissionManageRoles,
		)
	}

	return nil
}
