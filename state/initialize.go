package state

import (
	"time"

	"odfc/config"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	return &LocalEnv{
		start:  time.Now(),
		Format: config.OutputFmtPdf,
		BrokenImage: []byte(`<svg viewBox="0 0 200 150" xmlns="http://www.w3.org/2000/svg">
  <rect x="2" y="2" width="196" height="146" fill="white" stroke="gray" stroke-width="2"/>
  <path d="M20 120 L70 60 L110 100 L140 75 L180 120 Z" fill="lightgray" stroke="gray" stroke-width="2"/>
  <circle cx="150" cy="40" r="14" fill="lightgray" stroke="gray" stroke-width="2"/>
  <path d="M20 20 L180 130 M180 20 L20 130" stroke="darkred" stroke-width="3"/>
</svg>`),
	}
}
