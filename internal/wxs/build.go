package wxs

import (
	"fmt"
	"path"
	"strings"

	"git.home.luguber.info/inful/wixpack/internal/config"
	"git.home.luguber.info/inful/wixpack/internal/errors"
	"git.home.luguber.info/inful/wixpack/internal/ids"
	"git.home.luguber.info/inful/wixpack/internal/walker"
)

// Fixed identifiers for the installer scaffolding around the mirrored tree.
const (
	idTargetDir      = "TARGETDIR"
	idProgramFiles   = "ProgramFilesFolder"
	idInstallFolder  = "INSTALLFOLDER"
	idProgramMenu    = "ProgramMenuFolder"
	idAppMenuFolder  = "ApplicationProgramsFolder"
	idShortcutComp   = "ApplicationShortcut"
	idShortcut       = "ApplicationStartMenuShortcut"
	idRemoveMenuDir  = "RemoveApplicationProgramsFolder"
	idFeature        = "ProductFeature"
	idComponentGroup = "ProductComponents"
	idProductIcon    = "ProductIcon"
)

// shortcutGuidKey is the reserved allocation key for the shortcut component
// GUID; it cannot collide with a relative path because real paths never
// contain a colon prefix.
const shortcutGuidKey = "wixpack:shortcut"

// builder carries state for one Build call.
type builder struct {
	alloc *ids.Allocator
	guids *ids.GuidSource
	cfg   *config.Config

	doc     *Document
	group   *ComponentGroup
	exeComp *Component
	exeFile *File
}

// Build mirrors the walked source tree into a manifest document.
//
// Every file gets exactly one component; empty directories still produce a
// directory entry so the installed layout matches the source layout. All
// components are aggregated into a single component group referenced by the
// feature.
func Build(root *walker.Node, alloc *ids.Allocator, guids *ids.GuidSource, cfg *config.Config) (*Document, error) {
	if root.FileCount() == 0 {
		return nil, errors.EmptyTreeError(root.AbsPath)
	}

	b := &builder{
		alloc: alloc,
		guids: guids,
		cfg:   cfg,
		doc:   &Document{},
		group: &ComponentGroup{ID: idComponentGroup},
	}

	installDir := &Directory{ID: idInstallFolder, Name: cfg.Product.Name}
	if err := b.mirror(root, installDir); err != nil {
		return nil, err
	}
	b.doc.Directories++ // the install root itself

	product := &Product{
		ID:           cfg.Product.ID,
		Name:         cfg.Product.Name,
		Language:     cfg.Product.Language,
		Version:      cfg.Product.Version,
		Manufacturer: cfg.Product.Manufacturer,
		UpgradeCode:  strings.ToUpper(cfg.Product.UpgradeCode),
		Package: Package{
			InstallerVersion: "200",
			Compressed:       "yes",
			InstallScope:     "perMachine",
		},
		MediaTemplate: MediaTemplate{EmbedCab: "yes"},
		Feature: Feature{
			ID:                 idFeature,
			Title:              cfg.Product.Name,
			Level:              "1",
			ComponentGroupRefs: []ComponentGroupRef{{ID: idComponentGroup}},
		},
		ComponentGroup: b.group,
	}

	programFiles := &Directory{ID: idProgramFiles, Directories: []*Directory{installDir}}
	targetDir := &Directory{
		ID:          idTargetDir,
		Name:        "SourceDir",
		Directories: []*Directory{programFiles},
	}
	product.Directory = targetDir

	if cfg.Icon != nil {
		product.Icon = &Icon{ID: idProductIcon, SourceFile: cfg.Icon.Source}
		product.IconProperty = &Property{ID: "ARPPRODUCTICON", Value: idProductIcon}
	}

	if cfg.Shortcut != nil {
		if err := b.addShortcut(targetDir); err != nil {
			return nil, err
		}
	}

	if len(cfg.Associations) > 0 {
		if err := b.addAssociations(); err != nil {
			return nil, err
		}
	}

	b.doc.Wix = &Wix{Xmlns: wixNamespace, Product: product}
	return b.doc, nil
}

// mirror recursively copies one source directory node into dst.
func (b *builder) mirror(node *walker.Node, dst *Directory) error {
	for _, child := range node.Children {
		if child.IsDir() {
			dirID, err := b.alloc.Directory(child.RelPath)
			if err != nil {
				return err
			}
			sub := &Directory{ID: dirID, Name: path.Base(child.RelPath)}
			b.doc.pathStrings = append(b.doc.pathStrings, pathString{child.RelPath, sub.Name})
			b.doc.Directories++
			if err := b.mirror(child, sub); err != nil {
				return err
			}
			dst.Directories = append(dst.Directories, sub)
			continue
		}

		if err := b.addFile(child, dst); err != nil {
			return err
		}
	}
	return nil
}

// addFile creates the file entry and its owning component.
func (b *builder) addFile(node *walker.Node, dst *Directory) error {
	fileID, err := b.alloc.File(node.RelPath)
	if err != nil {
		return err
	}
	compID, err := b.alloc.Component(node.RelPath)
	if err != nil {
		return err
	}
	guid, err := b.guids.ComponentGuid(node.RelPath)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "derive component guid").
			WithContext("path", node.RelPath)
	}

	file := &File{ID: fileID, Source: node.AbsPath, KeyPath: "yes"}
	comp := &Component{ID: compID, Guid: guid, File: file}
	dst.Components = append(dst.Components, comp)
	b.group.ComponentRefs = append(b.group.ComponentRefs, ComponentRef{ID: compID})

	b.doc.pathStrings = append(b.doc.pathStrings,
		pathString{node.RelPath, path.Base(node.RelPath)},
		pathString{node.RelPath, node.AbsPath})
	b.doc.Files++
	b.doc.Components++

	if b.isMainExecutable(node.RelPath) {
		b.exeComp = comp
		b.exeFile = file
	}

	return nil
}

func (b *builder) isMainExecutable(relPath string) bool {
	exe := strings.ReplaceAll(b.cfg.Product.Executable, "\\", "/")
	return exe != "" && strings.EqualFold(relPath, exe)
}

// requireMainExecutable returns the component of the configured executable
// or a validation error naming it.
func (b *builder) requireMainExecutable(feature string) (*Component, error) {
	if b.cfg.Product.Executable == "" {
		return nil, errors.ValidationError(fmt.Sprintf("%s requires product.executable to be set", feature))
	}
	if b.exeComp == nil {
		return nil, errors.ValidationError(
			fmt.Sprintf("%s target %s not found in the source tree", feature, b.cfg.Product.Executable)).
			WithContext("path", b.cfg.Product.Executable)
	}
	return b.exeComp, nil
}

// addShortcut wires the Start Menu folder, the shortcut component and its
// registry anchor into the scaffolding.
func (b *builder) addShortcut(targetDir *Directory) error {
	if _, err := b.requireMainExecutable("shortcut"); err != nil {
		return err
	}

	name := b.cfg.Shortcut.Name
	if name == "" {
		name = b.cfg.Product.Name
	}

	guid, err := b.guids.ComponentGuid(shortcutGuidKey)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "derive shortcut guid")
	}

	target := "[" + idInstallFolder + "]" + strings.ReplaceAll(b.cfg.Product.Executable, "/", "\\")
	comp := &Component{
		ID:   idShortcutComp,
		Guid: guid,
		Shortcut: &Shortcut{
			ID:               idShortcut,
			Name:             name,
			Description:      b.cfg.Shortcut.Description,
			Target:           target,
			WorkingDirectory: idInstallFolder,
		},
		RegistryValue: &RegistryValue{
			Root:    "HKCU",
			Key:     "Software\\" + b.cfg.Product.Name,
			Name:    "installed",
			Type:    "integer",
			Value:   "1",
			KeyPath: "yes",
		},
		RemoveFolder: &RemoveFolder{
			ID:        idRemoveMenuDir,
			Directory: idAppMenuFolder,
			On:        "uninstall",
		},
	}

	appMenu := &Directory{ID: idAppMenuFolder, Name: name, Components: []*Component{comp}}
	programMenu := &Directory{ID: idProgramMenu, Directories: []*Directory{appMenu}}
	targetDir.Directories = append(targetDir.Directories, programMenu)

	b.group.ComponentRefs = append(b.group.ComponentRefs, ComponentRef{ID: idShortcutComp})
	b.doc.Components++

	return nil
}

// addAssociations registers the configured file extensions against the main
// executable, grouped by content type the way the shell expects.
func (b *builder) addAssociations() error {
	comp, err := b.requireMainExecutable("associations")
	if err != nil {
		return err
	}

	productID := ids.Sanitize(b.cfg.Product.Name)
	shellCommand := "[" + idInstallFolder + "]" +
		strings.ReplaceAll(b.cfg.Product.Executable, "/", "\\") + " \"%1\""

	for _, assoc := range b.cfg.Associations {
		first := strings.ToLower(strings.TrimPrefix(assoc.Extensions[0], "."))
		progID := &ProgId{
			ID:          productID + "." + first + "file",
			Description: b.cfg.Product.Name,
		}
		if b.cfg.Icon != nil {
			progID.Icon = idProductIcon
		}

		for _, ext := range assoc.Extensions {
			ext = strings.ToLower(strings.TrimPrefix(ext, "."))
			progID.Extensions = append(progID.Extensions, &Extension{
				ID:          ext,
				ContentType: assoc.ContentType,
				Verbs: []*Verb{{
					ID:         "open_" + ext,
					Command:    "Open",
					TargetFile: b.exeFile.ID,
					Argument:   "\"%1\"",
				}},
			})
		}

		comp.ProgIds = append(comp.ProgIds, progID)
		comp.RegistryKeys = append(comp.RegistryKeys, &RegistryKey{
			Root: "HKCR",
			Key:  progID.ID + "\\shell\\open\\command",
			Values: []*RegistryValue{{
				Type:  "string",
				Value: shellCommand,
			}},
		})
	}

	return nil
}
