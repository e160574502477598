package notifier

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/seemicrminc/tutorwidgets/internal/models"
)

type Notifier interface {
	NotifySubmission(widget models.Widget, submission models.Submission) error
}

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

func (n *DiscordNotifier) NotifySubmission(widget models.Widget, submission models.Submission) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}

	name := submission.Values["first_name"]
	if last := submission.Values["last_name"]; last != "" {
		name = name + " " + last
	}

	scheduleStr := ""
	if submission.ScheduleID != 0 {
		scheduleStr = fmt.Sprintf("\n**Slot:** #%d", submission.ScheduleID)
	}

	message := fmt.Sprintf("📬 **New %s Submission**\n**Widget:** %s (%s)\n**From:** %s\n**Email:** %s%s",
		widget.WidgetType,
		widget.WidgetTitle,
		widget.PublicID,
		name,
		submission.Values["email"],
		scheduleStr,
	)

	_, err := n.session.ChannelMessageSend(n.channelID, message)
	if err != nil {
		log.Printf("Failed to send discord message: %v", err)
		return err
	}

	return nil
}
