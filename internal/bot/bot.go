package bot

import (
	"errors"
	"fmt"
	"io"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/back"
	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/config"
	"github.com/CrazyPenguin0111/5D-Chess-Glicko-Bot/internal/util"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"
)

type commandHandler func(m *discordgo.Message, args []string, w io.Writer) error

type Bot struct {
	back   *back.Back
	config *config.Config

	startedAt time.Time
	dg        *discordgo.Session

	handlers map[string]commandHandler

	// One token bucket per author so a single spammer can't wedge the bot.
	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

func New(back *back.Back, conf *config.Config) (*Bot, error) {
	dg, err := discordgo.New("Bot " + conf.DiscordToken)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		back:      back,
		config:    conf,
		dg:        dg,
		startedAt: time.Now(),
		limiters:  map[string]*rate.Limiter{},
	}

	dg.AddHandler(bot.handleMessage)

	bot.handlers = map[string]commandHandler{
		"$register": bot.cmdRegister,
		"$rep":      bot.cmdReport,
		"$cancel":   bot.cmdCancel,

		"$leaderboard": bot.cmdLeaderboard,
		"$stale":       bot.cmdStaleLeaderboard,
		"$stats":       bot.cmdStats,

		"$looking": bot.cmdLooking,
		"$help":    bot.cmdHelp,
		"$dev":     bot.cmdDev,
	}

	return bot, nil
}

func (bot *Bot) Serve(wg *sync.WaitGroup, done <-chan struct{}) {
	log.Println("info: starting Discord bot")
	wg.Add(1)
	defer wg.Done()
	if err := bot.dg.Open(); err != nil {
		log.Panic(err)
	}

	<-done

	if err := bot.dg.Close(); err != nil {
		log.Printf("error: could not close Discord bot: %s", err)
	}
}

func (bot *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore webhooks, self, bots, non-commands.
	if m.Author == nil || m.Author.ID == s.State.User.ID ||
		m.Author.Bot || !strings.HasPrefix(m.Content, "$") {
		return
	}

	if !bot.listensTo(m.ChannelID) {
		return
	}

	if !bot.limiter(m.Author.ID).Allow() {
		log.Printf("warning: rate limited user %s", m.Author.ID)
		return
	}

	log.Printf(
		"info: <%s(%s)@%s#%s> %s",
		m.Author.String(), m.Author.ID,
		m.GuildID, m.ChannelID,
		m.Content,
	)

	out := newChannelWriter(s, m.ChannelID)
	defer func() {
		if err := out.Flush(); err != nil {
			log.Printf("error: could not send message: %s", err)
		}
	}()

	defer func() {
		r := recover()
		if r != nil {
			out.Reset()
			fmt.Fprint(out, "Something went very wrong, please tell an admin.")
			log.Print("panic: ", r)
			log.Print(debug.Stack())
		}
	}()

	if err := bot.dispatch(m.Message, out); err != nil {
		out.Reset()

		if msg, ok := publicError(err); ok {
			fmt.Fprintf(out, "<@%s>, %s", m.Author.ID, msg)
		} else {
			fmt.Fprint(out, "There was an error processing your command.")
		}

		log.Printf("error: failed to process command: %s", err)
	}
}

func (bot *Bot) listensTo(channelID string) bool {
	if len(bot.config.DiscordListenIDs) == 0 {
		return true
	}

	for _, v := range bot.config.DiscordListenIDs {
		if v == channelID {
			return true
		}
	}

	return false
}

func (bot *Bot) limiter(userID string) *rate.Limiter {
	bot.limitersMu.Lock()
	defer bot.limitersMu.Unlock()

	l, ok := bot.limiters[userID]
	if !ok {
		l = rate.NewLimiter(rate.Every(2*time.Second), 3)
		bot.limiters[userID] = l
	}

	return l
}

func (bot *Bot) isAdmin(userID string) bool {
	for _, v := range bot.config.DiscordAdminUserIDs {
		if v == userID {
			return true
		}
	}

	return false
}

func parseCommand(cmd string) (string, []string) {
	parts := strings.Split(cmd, " ")

	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	default:
		return parts[0], parts[1:]
	}
}

func (bot *Bot) dispatch(m *discordgo.Message, w io.Writer) error {
	command, args := parseCommand(m.Content)
	handler, ok := bot.handlers[command]
	if !ok {
		return util.ErrPublic(fmt.Sprintf("invalid command: %v", m.Content))
	}

	return handler(m, args, w)
}

// publicError maps domain errors to their stable user-facing message.
// Internal failures (persistence, a non-converging rating update) stay
// generic on purpose: the log gets the details, the user does not.
func publicError(err error) (string, bool) {
	switch {
	case errors.Is(err, back.ErrAlreadyExists):
		return "you are already registered.", true
	case errors.Is(err, back.ErrNotFound):
		return "this player is not registered. Use `$register` first.", true
	case errors.Is(err, back.ErrInvalidResult):
		return "invalid result. Use `w` for win, `l` for loss, or `d` for draw.", true
	case errors.Is(err, back.ErrSelfMatch):
		return "you cannot report a match against yourself.", true
	case errors.Is(err, back.ErrNoPendingMatch):
		return "there is no pending match report to cancel.", true
	case errors.Is(err, util.ErrPublic("")):
		return err.Error(), true
	default:
		return "", false
	}
}

func (bot *Bot) cmdHelp(_ *discordgo.Message, _ []string, w io.Writer) error {
	fmt.Fprint(w, strings.ReplaceAll(`Available commands:
'''
$register             # register yourself with a starting rating of 1400
$rep w|l|d @opponent  # report a match result, from your point of view
$cancel @opponent     # cancel your pending match report against @opponent
$leaderboard [RANK]   # leaderboard of the last 3 months, around RANK if given
$stale [RANK]         # leaderboard including inactive players
$stats                # your rating and win/loss/draw counts
$looking              # toggle the "Looking" role
$help                 # display this help message
'''
A reported match only counts once your opponent reports the complementary
result, unconfirmed reports expire after 20m.`, "'''", "```"))

	return nil
}
