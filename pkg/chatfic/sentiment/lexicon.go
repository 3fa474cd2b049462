package sentiment

// lexEntry maps an expressive token to a mood. Entries are matched as
// substrings in order; the first hit wins, so table order matters.
type lexEntry struct {
	token string
	mood  Label
}

var lexicon = []lexEntry{
	{"🕛", Neutral},
	{"🤐", Neutral},
	{"🤑", Happy},
	{"🤒", Sad},
	{"🤓", Happy},
	{"🤔", Neutral},
	{"🤕", Sad},
	{"🤗", Happy},
	{"🤠", Happy},
	{"🤡", Happy},
	{"🤢", Sad},
	{"🤧", Sad},
	{"🤨", Surprised},
	{"🤩", Happy},
	{"🤪", Naughty},
	{"🤫", Happy},
	{"🤬", Angry},
	{"🤮", Sad},
	{"🤯", Surprised},
	{"🥰", Happy},
	{"🥳", Happy},
	{"🥵", Naughty},
	{"🥶", Sad},
	{"🥺", Sad},
	{"🧐", Neutral},
	{"😀", Happy},
	{"😁", Happy},
	{"😂", Happy},
	{"😅", Happy},
	{"😇", Happy},
	{"😉", Naughty},
	{"😊", Happy},
	{"😋", Happy},
	{"😌", Neutral},
	{"😍", Happy},
	{"😎", Naughty},
	{"😏", Naughty},
	{"😐", Annoyed},
	{"😑", Annoyed},
	{"😓", Sad},
	{"😔", Sad},
	{"😖", Sad},
	{"😗", Neutral},
	{"😘", Happy},
	{"😙", Happy},
	{"😚", Shy},
	{"😛", Happy},
	{"😜", Naughty},
	{"😝", Happy},
	{"😞", Sad},
	{"😠", Angry},
	{"😡", Angry},
	{"😈", Naughty},
	{"👿", Angry},
	{"😢", Crying},
	{"😣", Annoyed},
	{"😤", Angry},
	{"😨", Scared},
	{"😩", Annoyed},
	{"😪", Sad},
	{"😫", Sad},
	{"😭", Crying},
	{"😮", Surprised},
	{"😯", Surprised},
	{"😰", Surprised},
	{"😱", Scared},
	{"😲", Surprised},
	{"😴", Neutral},
	{"😵", Surprised},
	{"🙃", Happy},
	{"🙄", Annoyed},
	{"😒", Annoyed},
	{"cock", Naughty},
	{"pussy", Naughty},
	{"tits", Naughty},
	{"horny", Naughty},
	{"fuck me", Naughty},
	{"fucked me", Naughty},
	{"sexy", Naughty},
	{"sucking", Naughty},
	{"huge", Naughty},
	{"omg", Surprised},
	{"very sad", Sad},
	{"I'm afraid", Sad},
	{"haha", Happy},
	{"that's hot", Naughty},
	{"little slut", Naughty},
	{":)", Happy},
	{"wtf", Annoyed},
	{"fuck you", Angry},
}

// Lookup scans the lexical table for the first token contained in the
// sentence and returns its mood.
func Lookup(sentence string) (Label, bool) {
	for _, e := range lexicon {
		if contains(sentence, e.token) {
			return e.mood, true
		}
	}
	return "", false
}
