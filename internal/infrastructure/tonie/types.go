package tonie

import "encoding/json"

// Session is the result of one password-grant login. Sessions are request
// scoped: every top-level request logs in from scratch and nothing is cached.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// UploadTarget is the presigned-POST descriptor issued by the file-creation
// endpoint. Request.Fields must be replayed verbatim, in order, ahead of the
// file part when posting to Request.URL.
type UploadTarget struct {
	FileID  string        `json:"fileId"`
	Request UploadRequest `json:"request"`
}

type UploadRequest struct {
	URL    string `json:"url"`
	Fields Fields `json:"fields"`
}

// Fields preserves the upstream's field order, which json.Unmarshal into a
// map would destroy.
type Fields []Field

type Field struct {
	Name  string
	Value string
}

// UnmarshalJSON decodes a JSON object while keeping key order. The upstream
// emits the presigned policy fields in signing order, so order is load
// bearing.
func (f *Fields) UnmarshalJSON(data []byte) error {
	ordered, err := decodeOrderedObject(data)
	if err != nil {
		return err
	}
	*f = ordered
	return nil
}

func (f Fields) MarshalJSON() ([]byte, error) {
	var buf []byte
	buf = append(buf, '{')
	for i, field := range f {
		if i > 0 {
			buf = append(buf, ',')
		}
		name, err := json.Marshal(field.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(field.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, value...)
	}
	return append(buf, '}'), nil
}

// Household groups the account's creative tonies.
type Household struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	CreativeTonies []CreativeTonie `json:"creativeTonies"`
}

// CreativeTonie is one figurine profile in a household.
type CreativeTonie struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Image         string  `json:"imageUrl,omitempty"`
	Live          bool    `json:"live"`
	Private       bool    `json:"private"`
	NoCloud       bool    `json:"noCloud"`
	ChaptersCount int     `json:"chaptersCount"`
	TotalLength   float64 `json:"secondsRemaining,omitempty"`
	LastContent   string  `json:"lastContent,omitempty"`
}

// Chapter is what the chapters endpoint returns after registration.
type Chapter struct {
	ID      string  `json:"id,omitempty"`
	Title   string  `json:"title"`
	File    string  `json:"file,omitempty"`
	Seconds float64 `json:"seconds,omitempty"`
}
