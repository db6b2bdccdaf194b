// arbor-demo showcases the arbor library with a small document store:
// one writer revises sections of a document inside transactions while
// several readers sample committed versions lock-free.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/phroun/arbor"
)

// section is a leaf value: an identified block of text with an edit counter.
type section struct {
	id    uuid.UUID
	title string
	body  string
	edits int
}

// document is the tree root: a titled list of sections.
type document struct {
	title    string
	revision int
	sections []arbor.Node[section]
}

func (d *document) Clone(tx *arbor.Tx) document {
	out := document{
		title:    d.title,
		revision: d.revision,
		sections: make([]arbor.Node[section], len(d.sections)),
	}
	for i := range d.sections {
		out.sections[i] = d.sections[i].Copy(tx)
	}
	return out
}

func newDocument(title string, sectionCount int) document {
	d := document{title: title, sections: make([]arbor.Node[section], sectionCount)}
	for i := range d.sections {
		d.sections[i] = arbor.NewNode(section{
			id:    uuid.New(),
			title: fmt.Sprintf("Section %d", i+1),
			body:  "(empty)",
		})
	}
	return d
}

func main() {
	sections := pflag.Int("sections", 8, "sections in the document")
	revisions := pflag.Int("revisions", 50, "revisions the writer commits")
	readers := pflag.Int("readers", 3, "concurrent readers")
	interval := pflag.Duration("interval", 5*time.Millisecond, "delay between commits")
	pflag.Parse()

	// Assemble the initial document as a fresh value; nothing is shared yet,
	// so the whole tree can be built and edited freely.
	value := arbor.NewValue(newDocument("Release Notes", *sections))
	edit, err := value.Write()
	if err != nil {
		fmt.Printf("open edit: %v\n", err)
		os.Exit(1)
	}
	edit.Get().sections[0].Mut(nil).body = "Initial draft."
	edit.Close()

	root := arbor.NewRoot(value)

	fmt.Printf("Document %q with %d sections, %d revisions, %d readers\n\n",
		"Release Notes", *sections, *revisions, *readers)

	stop := make(chan struct{})
	var g errgroup.Group

	// Writer: each revision touches one section and bumps the revision
	// number; untouched sections keep their storage across versions.
	g.Go(func() error {
		defer close(stop)
		for i := 1; i <= *revisions; i++ {
			err := root.Update(func(tx *arbor.Tx, doc *document) error {
				doc.revision = i
				s := doc.sections[i%len(doc.sections)].Mut(tx)
				s.body = fmt.Sprintf("Revised in revision %d.", i)
				s.edits++
				return nil
			})
			if err != nil {
				return err
			}
			time.Sleep(*interval)
		}
		return nil
	})

	// Readers: sample the latest committed version without ever blocking on
	// the writer's transaction lock.
	for w := 0; w < *readers; w++ {
		id := w + 1
		g.Go(func() error {
			var lastSeen int
			for {
				select {
				case <-stop:
					return nil
				default:
				}
				snap := root.Snapshot()
				doc := snap.Get()
				if doc.revision != lastSeen {
					lastSeen = doc.revision
					s := doc.sections[doc.revision%len(doc.sections)].Get()
					fmt.Printf("reader %d: revision %2d, %s (%s): %s\n",
						id, doc.revision, s.title, shortID(s.id), s.body)
				}
				time.Sleep(*interval / 2)
			}
		})
	}

	if err := g.Wait(); err != nil {
		fmt.Printf("demo failed: %v\n", err)
		os.Exit(1)
	}

	final := root.Snapshot().Get()
	fmt.Printf("\nFinal revision %d:\n", final.revision)
	for _, n := range final.sections {
		s := n.Get()
		fmt.Printf("  %s (%s): %d edits, %s\n", s.title, shortID(s.id), s.edits, s.body)
	}
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
