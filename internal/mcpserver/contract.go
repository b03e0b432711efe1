package mcpserver

// DocumentFormat describes how documents in the tree are shaped, for LLM
// consumers that create or edit them.
const DocumentFormat = `# mdtree Document Format

The tree holds two kinds of nodes: folders and files. Only files have content.

## Nodes

- Every node has an opaque id (e.g. ` + "`file-01j9...`" + `, ` + "`folder-01j9...`" + `). Use the ids
  shown by ` + "`list_tree`" + `; titles are not unique.
- Titles are 1 to 50 characters after trimming surrounding whitespace.
- A node lives at the root or inside a folder. Files cannot contain other nodes.
- New nodes are appended after their siblings; nothing is sorted.
- Deleting a folder deletes everything beneath it.

## Content

A new file starts with a single heading built from its title:

` + "```" + `markdown
# Release notes

` + "```" + `

Content is plain UTF-8 Markdown and is replaced wholesale on every write;
send the full document, not a diff.

## Example

` + "```" + `markdown
# Weekly standup

Attendees: Alice, Bob.

## Action items

- Alice to review the design doc
- Bob to update the roadmap
` + "```" + `
`
