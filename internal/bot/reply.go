package bot

// Reply is one outbound message produced by a state handler or the
// responder. The transport decides how to deliver it (chunking, keyboard
// markup).
type Reply struct {
	Text string
	// Keyboard pins a reply keyboard of choice labels, one row per slice.
	Keyboard [][]string
	// RemoveKeyboard clears a previously pinned keyboard.
	RemoveKeyboard bool
}

func textReply(text string) Reply {
	return Reply{Text: text}
}
