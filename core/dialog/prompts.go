package dialog

// User-facing dialogue texts. Prompts echo accepted input back the way the
// bot always has.
const (
	msgAskQuestion   = "Please enter your poll question."
	msgAskOptions    = "Your poll question is: %s\n\nNow send the options separated by commas."
	msgAskAnonymous  = "Your poll options are: %s\n\nDo you want the votes to be anonymous?"
	msgAskLimit      = "Do you want to limit the number of votes per user?"
	msgAskMaxVotes   = "Please enter the maximum number of votes per user."
	msgCancelled     = "Poll creation cancelled."
	msgNoDialogue    = "No poll is being created right now. Send /poll to start one."
	msgEmptyQuestion = "The question cannot be empty. Please enter your poll question."
	msgTooFewOptions = "Please send at least two options separated by commas."
	msgBadMaxVotes   = "Please enter a positive whole number."
	msgExpectButton  = "Please use the buttons above to answer."
)
