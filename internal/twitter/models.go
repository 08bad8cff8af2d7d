package twitter

// API v2 response payloads. Only the fields the relay reads are mapped.

type apiError struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Type   string `json:"type"`
}

type userResponse struct {
	Data   *user      `json:"data"`
	Errors []apiError `json:"errors"`
}

type user struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
}

type tweet struct {
	ID               string            `json:"id"`
	Text             string            `json:"text"`
	AuthorID         string            `json:"author_id"`
	CreatedAt        string            `json:"created_at"`
	ReferencedTweets []referencedTweet `json:"referenced_tweets"`
	InReplyToUserID  string            `json:"in_reply_to_user_id"`
	Attachments      *attachments      `json:"attachments"`
}

type referencedTweet struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

type attachments struct {
	MediaKeys []string `json:"media_keys"`
}

type media struct {
	MediaKey        string    `json:"media_key"`
	Type            string    `json:"type"`
	URL             string    `json:"url"`
	PreviewImageURL string    `json:"preview_image_url"`
	Variants        []variant `json:"variants"`
}

type variant struct {
	BitRate     int    `json:"bit_rate"`
	ContentType string `json:"content_type"`
	URL         string `json:"url"`
}

type includes struct {
	Media []media `json:"media"`
	Users []user  `json:"users"`
}

type tweetResponse struct {
	Data     *tweet     `json:"data"`
	Includes includes   `json:"includes"`
	Errors   []apiError `json:"errors"`
}

type timelineResponse struct {
	Data     []tweet    `json:"data"`
	Includes includes   `json:"includes"`
	Errors   []apiError `json:"errors"`
}
