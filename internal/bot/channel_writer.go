package bot

import (
	"bytes"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// channelWriter outputs messages to a Discord channel when flushed, it can
// be reused right after flushing to send a new message.
type channelWriter struct {
	channelID string
	dg        *discordgo.Session
	buf       bytes.Buffer

	debugInfo string
}

func newChannelWriter(dg *discordgo.Session, channelID string) *channelWriter {
	if channelID == "" {
		log.Print("warning: skipping creating writer for empty Discord channel ID")
		return nil
	}

	return &channelWriter{
		dg:        dg,
		channelID: channelID,
		debugInfo: fmt.Sprintf("<to chan %s>", channelID),
	}
}

func (w *channelWriter) Write(p []byte) (int, error) {
	if w == nil {
		return 0, nil
	}

	return w.buf.Write(p)
}

func (w *channelWriter) Reset() {
	if w == nil {
		return
	}

	w.buf.Reset()
}

func (w *channelWriter) Flush() error {
	if w == nil || w.buf.Len() <= 0 {
		return nil
	}

	content := w.buf.String()
	_, err := w.dg.ChannelMessageSend(w.channelID, content)
	log.Printf("info: %s: %s", w.debugInfo, content)

	w.buf.Reset()
	return err
}
