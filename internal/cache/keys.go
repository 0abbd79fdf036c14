package cache

import (
	"fmt"
	"time"
)

const (
	ProfileTTL        = 2 * time.Hour
	HistoryTTL        = 30 * time.Minute
	ChannelMembersTTL = time.Hour
	FeedTTL           = 15 * time.Minute
)

func ProfileKey(userID int64) string {
	return fmt.Sprintf("user_profile:%d", userID)
}

func HistoryKey(room string, page, perPage int) string {
	return fmt.Sprintf("chat_messages:%s:page_%d_%d", room, page, perPage)
}

// HistoryPattern покрывает все страницы истории комнаты.
func HistoryPattern(room string) string {
	return "chat_messages:" + room + ":*"
}

func ChannelMembersKey(channelID int64) string {
	return fmt.Sprintf("channel_members:%d", channelID)
}

func FeedKey(username string, page, perPage int) string {
	return fmt.Sprintf("feed:%s:page_%d_%d", username, page, perPage)
}

func FeedPattern(username string) string {
	return "feed:" + username + ":*"
}
