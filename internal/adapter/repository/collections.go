package repository

const (
	usersCollection     = "users"
	queueCollection     = "match_queue"
	matchesCollection   = "matches"
	messagesCollection  = "messages"
	interestsCollection = "interests"
)

func messagesPath(matchID string) string {
	return matchesCollection + "/" + matchID + "/" + messagesCollection
}
