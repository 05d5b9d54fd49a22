package grant

// Grant is a funding opportunity record as returned by the backend, with tags assigned.
type Grant struct {
	Name         string   `json:"grant_name"`
	Description  string   `json:"grant_description"`
	Tags         []string `json:"tags"`
	WebsiteURLs  []string `json:"website_urls"`
	DocumentURLs []string `json:"document_urls"`
}

// Input is the submittable form of a grant. Tags are never supplied by the client.
type Input struct {
	Name         string   `json:"grant_name" validate:"required"`
	Description  string   `json:"grant_description" validate:"required"`
	WebsiteURLs  []string `json:"website_urls"`
	DocumentURLs []string `json:"document_urls"`
}

// Normalize returns a copy with absent URL sequences replaced by empty ones.
func (in Input) Normalize() Input {
	in.WebsiteURLs = nonNil(in.WebsiteURLs)
	in.DocumentURLs = nonNil(in.DocumentURLs)
	return in
}

// Preview converts the input into an untagged grant for display before submission.
func (in Input) Preview() Grant {
	n := in.Normalize()
	return Grant{
		Name:         n.Name,
		Description:  n.Description,
		Tags:         []string{},
		WebsiteURLs:  n.WebsiteURLs,
		DocumentURLs: n.DocumentURLs,
	}
}

// Input strips the tags, yielding the submittable form.
func (g Grant) Input() Input {
	return Input{
		Name:         g.Name,
		Description:  g.Description,
		WebsiteURLs:  g.WebsiteURLs,
		DocumentURLs: g.DocumentURLs,
	}.Normalize()
}

// HasTag reports whether the grant carries tag (exact match).
func (g Grant) HasTag(tag string) bool {
	for _, t := range g.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Previews converts a batch of inputs into untagged grants.
func Previews(inputs []Input) []Grant {
	out := make([]Grant, len(inputs))
	for i, in := range inputs {
		out[i] = in.Preview()
	}
	return out
}

// Inputs converts grants back into submittable inputs.
func Inputs(grants []Grant) []Input {
	out := make([]Input, len(grants))
	for i, g := range grants {
		out[i] = g.Input()
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
