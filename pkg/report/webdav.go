package report

import (
	"fmt"
	"os"
	"path"

	"github.com/studio-b12/gowebdav"
)

// Publisher uploads files into a directory of a WebDAV share.
type Publisher struct {
	client *gowebdav.Client
	dir    string
}

func NewPublisher(server, user, pass, dir string) *Publisher {
	if dir == "" {
		dir = "/"
	}
	return &Publisher{
		client: gowebdav.NewClient(server, user, pass),
		dir:    dir,
	}
}

// Publish writes data to name inside the publisher directory, creating it when missing.
func (p *Publisher) Publish(name string, data []byte) (string, error) {
	if err := p.client.MkdirAll(p.dir, 0755); err != nil {
		logger.Errorw("could not create remote directory",
			"dir", p.dir,
			"err", err)
		return "", fmt.Errorf("cannot create %q: %w", p.dir, err)
	}
	target := path.Join(p.dir, name)
	if err := p.client.Write(target, data, os.FileMode(0644)); err != nil {
		logger.Errorw("could not upload file",
			"file", target,
			"err", err)
		return "", fmt.Errorf("cannot upload %q: %w", target, err)
	}
	logger.Infow("published",
		"file", target,
		"size", len(data))
	return target, nil
}
