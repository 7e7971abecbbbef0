package api

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strconv"

	"taskboard/internal/service"
)

// Multipart field names expected by POST /taches.
const (
	fieldTitle       = "titre"
	fieldDescription = "description"
	fieldStatus      = "status"
	fieldAssignee    = "assignedTo"
	fieldImage       = "image"
	fieldAudio       = "audio"

	defaultAudioName = "audio.wav"
	defaultImageName = "image"
)

// encodeMultipart builds the form body for a task with attachments.
// The returned content type carries the boundary.
func encodeMultipart(task service.NewTask) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{fieldTitle, task.Title},
		{fieldDescription, task.Description},
	}
	if task.Status != "" {
		fields = append(fields, [2]string{fieldStatus, task.Status.Wire()})
	}
	if task.AssigneeID != nil {
		fields = append(fields, [2]string{fieldAssignee, strconv.Itoa(*task.AssigneeID)})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	if task.Image != nil {
		if err := writeFile(w, fieldImage, *task.Image, defaultImageName); err != nil {
			return nil, "", err
		}
	}
	if task.Audio != nil {
		if err := writeFile(w, fieldAudio, *task.Audio, defaultAudioName); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, field string, a service.Attachment, fallbackName string) error {
	name := a.Name
	if name == "" {
		name = fallbackName
	}
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     field,
		"filename": name,
	}))
	h.Set("Content-Type", contentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	if a.Data == nil {
		return fmt.Errorf("%s attachment has no data", field)
	}
	if _, err := io.Copy(part, a.Data); err != nil {
		return fmt.Errorf("failed to read %s attachment: %w", field, err)
	}
	return nil
}
