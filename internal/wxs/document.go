// Package wxs builds and serializes WiX installer source documents.
package wxs

import "encoding/xml"

// wixNamespace is the WiX 2006 schema namespace expected by the external
// compiler.
const wixNamespace = "http://schemas.microsoft.com/wix/2006/wi"

// Wix is the manifest root element.
type Wix struct {
	XMLName xml.Name `xml:"Wix"`
	Xmlns   string   `xml:"xmlns,attr"`
	Product *Product `xml:"Product"`
}

// Product carries the package-level metadata and the directory tree.
type Product struct {
	ID           string `xml:"Id,attr"`
	Name         string `xml:"Name,attr"`
	Language     string `xml:"Language,attr"`
	Version      string `xml:"Version,attr"`
	Manufacturer string `xml:"Manufacturer,attr"`
	UpgradeCode  string `xml:"UpgradeCode,attr"`

	Package        Package         `xml:"Package"`
	MediaTemplate  MediaTemplate   `xml:"MediaTemplate"`
	Icon           *Icon           `xml:"Icon,omitempty"`
	IconProperty   *Property       `xml:"Property,omitempty"`
	Feature        Feature         `xml:"Feature"`
	Directory      *Directory      `xml:"Directory"`
	ComponentGroup *ComponentGroup `xml:"ComponentGroup"`
}

// Package describes installer-level settings.
type Package struct {
	InstallerVersion string `xml:"InstallerVersion,attr"`
	Compressed       string `xml:"Compressed,attr"`
	InstallScope     string `xml:"InstallScope,attr"`
}

// MediaTemplate embeds the payload cabinet in the package.
type MediaTemplate struct {
	EmbedCab string `xml:"EmbedCab,attr"`
}

// Icon references the product icon source file.
type Icon struct {
	ID         string `xml:"Id,attr"`
	SourceFile string `xml:"SourceFile,attr"`
}

// Property is a package-level installer property.
type Property struct {
	ID    string `xml:"Id,attr"`
	Value string `xml:"Value,attr"`
}

// Feature is the single install feature; it references the component group.
type Feature struct {
	ID                 string              `xml:"Id,attr"`
	Title              string              `xml:"Title,attr"`
	Level              string              `xml:"Level,attr"`
	ComponentGroupRefs []ComponentGroupRef `xml:"ComponentGroupRef"`
}

// ComponentGroupRef points the feature at a component group.
type ComponentGroupRef struct {
	ID string `xml:"Id,attr"`
}

// ComponentGroup is the flat list of every component in the document; the
// packaging step references components through it independent of tree depth.
type ComponentGroup struct {
	ID            string         `xml:"Id,attr"`
	ComponentRefs []ComponentRef `xml:"ComponentRef"`
}

// ComponentRef references a component by identifier.
type ComponentRef struct {
	ID string `xml:"Id,attr"`
}

// Directory mirrors one source directory. Components (files) are emitted
// before child directories; both are in lexicographic order.
type Directory struct {
	ID          string       `xml:"Id,attr"`
	Name        string       `xml:"Name,attr,omitempty"`
	Components  []*Component `xml:"Component"`
	Directories []*Directory `xml:"Directory"`
}

// Component is the installer's atomic install/uninstall/repair unit, fixed
// at one file per component.
type Component struct {
	ID   string `xml:"Id,attr"`
	Guid string `xml:"Guid,attr"`

	File          *File          `xml:"File,omitempty"`
	Shortcut      *Shortcut      `xml:"Shortcut,omitempty"`
	RegistryValue *RegistryValue `xml:"RegistryValue,omitempty"`
	RemoveFolder  *RemoveFolder  `xml:"RemoveFolder,omitempty"`
	ProgIds       []*ProgId      `xml:"ProgId,omitempty"`
	RegistryKeys  []*RegistryKey `xml:"RegistryKey,omitempty"`
}

// File is a single payload file; KeyPath marks it as the component key.
type File struct {
	ID      string `xml:"Id,attr"`
	Source  string `xml:"Source,attr"`
	KeyPath string `xml:"KeyPath,attr,omitempty"`
}

// Shortcut is a Start Menu shortcut.
type Shortcut struct {
	ID               string `xml:"Id,attr"`
	Name             string `xml:"Name,attr"`
	Description      string `xml:"Description,attr,omitempty"`
	Target           string `xml:"Target,attr"`
	WorkingDirectory string `xml:"WorkingDirectory,attr"`
}

// RegistryValue anchors shortcut components and registers shell commands.
type RegistryValue struct {
	Root    string `xml:"Root,attr,omitempty"`
	Key     string `xml:"Key,attr,omitempty"`
	Name    string `xml:"Name,attr,omitempty"`
	Type    string `xml:"Type,attr"`
	Value   string `xml:"Value,attr"`
	KeyPath string `xml:"KeyPath,attr,omitempty"`
}

// RegistryKey groups registry values under a root and key.
type RegistryKey struct {
	Root   string           `xml:"Root,attr"`
	Key    string           `xml:"Key,attr"`
	Values []*RegistryValue `xml:"RegistryValue"`
}

// RemoveFolder removes the shortcut folder on uninstall.
type RemoveFolder struct {
	ID        string `xml:"Id,attr"`
	Directory string `xml:"Directory,attr"`
	On        string `xml:"On,attr"`
}

// ProgId registers a file type owned by the main executable.
type ProgId struct {
	ID          string       `xml:"Id,attr"`
	Description string       `xml:"Description,attr,omitempty"`
	Icon        string       `xml:"Icon,attr,omitempty"`
	Extensions  []*Extension `xml:"Extension"`
}

// Extension maps one file extension onto a ProgId.
type Extension struct {
	ID          string  `xml:"Id,attr"`
	ContentType string  `xml:"ContentType,attr,omitempty"`
	Verbs       []*Verb `xml:"Verb"`
}

// Verb is the shell action for an extension.
type Verb struct {
	ID         string `xml:"Id,attr"`
	Command    string `xml:"Command,attr"`
	TargetFile string `xml:"TargetFile,attr"`
	Argument   string `xml:"Argument,attr"`
}

// Document is the built manifest plus bookkeeping the serializer and
// callers need: entry counts and the path-derived strings subject to
// encoding validation.
type Document struct {
	Wix *Wix

	Directories int
	Components  int
	Files       int

	// pathStrings maps manifest strings back to the relative path that
	// produced them, for encoding diagnostics.
	pathStrings []pathString
}

type pathString struct {
	relPath string
	value   string
}
