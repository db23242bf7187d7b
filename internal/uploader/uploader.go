package uploader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Client uploads images to the external image host; the returned URL is
// what gets attached to outbound image sends.
type Client struct {
	URL  string
	Key  string
	HTTP *http.Client
}

func NewClient(uploadURL, key string) *Client {
	return &Client{URL: uploadURL, Key: key, HTTP: &http.Client{}}
}

type uploadResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload posts the file as multipart field "image" with the API key as a
// query parameter and returns the hosted URL.
func (c *Client) Upload(filename string, data []byte) (string, error) {
	if c.URL == "" || c.Key == "" {
		return "", errors.New("image upload configuration is missing")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	part.Write(data)
	writer.Close()

	req, err := http.NewRequest("POST", c.URL+"?key="+c.Key, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("upload failed: %s - %s", resp.Status, string(respBody))
	}

	if !parsed.Success {
		message := parsed.Error.Message
		if message == "" {
			message = "Unknown error"
		}
		return "", fmt.Errorf("failed to upload image: %s", message)
	}

	return parsed.Data.URL, nil
}
