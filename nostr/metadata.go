package nostr

import "encoding/json"

// Profile is the kind-0 metadata content: a flat JSON object of
// user-chosen display fields. Unknown fields round-trip through Extra.
type Profile struct {
	Name    string `json:"name,omitempty"`
	About   string `json:"about,omitempty"`
	Picture string `json:"picture,omitempty"`
	NIP05   string `json:"nip05,omitempty"`

	Extra map[string]string `json:"-"`
}

// BuildMetadataEvent signs a kind-0 event whose content is the JSON
// encoding of profile.
func BuildMetadataEvent(profile Profile, secret [32]byte, clock Clock) (Event, error) {
	kp, err := KeyPairFromSecret(secret)
	if err != nil {
		return Event{}, err
	}
	content, err := marshalProfile(profile)
	if err != nil {
		return Event{}, err
	}
	event := Event{
		PubKey:    hexEncode(kp.Public[:]),
		CreatedAt: realTimestamp(clock),
		Kind:      KindMetadata,
		Tags:      [][]string{},
		Content:   content,
	}
	if err := event.Sign(secret); err != nil {
		return Event{}, err
	}
	return event, nil
}

// ParseMetadataEvent extracts the Profile from a kind-0 event's content.
func ParseMetadataEvent(event Event) (Profile, error) {
	if event.Kind != KindMetadata {
		return Profile{}, ErrInvalidEvent
	}
	return unmarshalProfile(event.Content)
}

func marshalProfile(p Profile) (string, error) {
	fields := map[string]string{}
	for k, v := range p.Extra {
		fields[k] = v
	}
	if p.Name != "" {
		fields["name"] = p.Name
	}
	if p.About != "" {
		fields["about"] = p.About
	}
	if p.Picture != "" {
		fields["picture"] = p.Picture
	}
	if p.NIP05 != "" {
		fields["nip05"] = p.NIP05
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalProfile(content string) (Profile, error) {
	var fields map[string]string
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return Profile{}, ErrInvalidEvent
	}
	p := Profile{Extra: map[string]string{}}
	for k, v := range fields {
		switch k {
		case "name":
			p.Name = v
		case "about":
			p.About = v
		case "picture":
			p.Picture = v
		case "nip05":
			p.NIP05 = v
		default:
			p.Extra[k] = v
		}
	}
	return p, nil
}
