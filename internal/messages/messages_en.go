package messages

var englishMessages = map[string]string{
	// Submission outcomes
	AddSuccess:   "your song just dropped into the playlist like a bass drop in an EDM festival",
	AddDuplicate: "great minds think alike! this song is already added. thank you!",
	AddFailed:    "couldn't save %s right now. it stays on the list, marked unconfirmed.",
	AddThrottled: "easy there, %s! give the others a turn and try again in a minute.",
	LoadFailed:   "couldn't load the playlist. showing what we had.",

	// Search
	SearchNoResult: "No results found",
	SearchPrompt:   "Search for a song...",
	SearchHint:     "click on a song below to add",

	// Nickname form
	NicknamePrompt: "your name, legend?",

	// Playlist table
	PlaylistTitle: "great tracks, greater contributors!",
	PlaylistEmpty: "no tracks yet. be the first!",
	PlaylistLoad:  "loading playlist...",
	Unconfirmed:   "unconfirmed",
	Anonymous:     "anonymous",
	UnknownArtist: "Unknown Artist",

	Title: "got a tune that slaps? share it!",
}
