package chat

import (
	"fmt"
	"strings"
)

// maxAttachmentChars bounds how much of a text attachment is inlined into
// the model input.
const maxAttachmentChars = 10000

// Attachment describes a file the user attached to a message.
type Attachment struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	Size      int64  `json:"size"`
	Content   string `json:"-"` // text content when readable
}

// IsText reports whether the attachment content can be inlined as text.
func (a Attachment) IsText() bool {
	if strings.HasPrefix(a.MediaType, "text/") {
		return true
	}
	switch a.MediaType {
	case "application/json", "application/xml", "application/x-yaml":
		return true
	}
	return false
}

// ComposeModelInput builds the content string sent to the model for a user
// message with attachments. Text file contents are inlined (truncated at
// maxAttachmentChars); other files are referenced by name and type.
func ComposeModelInput(message string, attachments []Attachment) string {
	if len(attachments) == 0 {
		return message
	}

	var b strings.Builder
	b.WriteString(message)
	b.WriteString("\n\nAttached files:\n")
	for _, a := range attachments {
		if a.IsText() && a.Content != "" {
			content := a.Content
			if len(content) > maxAttachmentChars {
				content = content[:maxAttachmentChars] + "\n... [content truncated]"
			}
			fmt.Fprintf(&b, "\n--- %s ---\n%s\n", a.Name, content)
			continue
		}
		fmt.Fprintf(&b, "\n- %s (%s, %d bytes)\n", a.Name, a.MediaType, a.Size)
	}
	return b.String()
}
