// Package storage emits browser storage: Generated.Storage ports for the UI
// and localStorage classes that answer them.
package storage

import (
	"github.com/teranos/buildamp/elm"
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/model"
	"github.com/teranos/buildamp/registry"
	"github.com/teranos/buildamp/typemap"
)

const (
	// Domain is the model directory this emitter reads
	Domain = "storage"
	// ElmPath is the port module, relative to the Elm root
	ElmPath = "Generated/Storage.elm"
	// JSPath is the browser module, relative to the JS root
	JSPath = "browser-storage.js"
)

// Key is the localStorage key for a model: UserPreferences -> user_preferences.
func Key(m model.Classified) string {
	return emit.ToSnakeCase(m.Name)
}

// Generate renders Storage.elm and browser-storage.js. Only Primary models
// are stored; components get types and codecs for embedding.
func Generate(models []model.Classified) *emit.Result {
	models = emit.Unique(models)
	mapper := typemap.New(registry.Build(Domain, models))
	stored := model.Primaries(models)

	var decls []elm.Decl
	for _, m := range models {
		fields := emit.MapFields(mapper, m.Name, m.Fields)
		decls = append(decls,
			elm.Section{Title: m.Name},
			emit.RecordAlias(m.Name, "", fields, false),
		)
		if m.IsPrimary() {
			decls = append(decls, operations(m)...)
		}
		decls = append(decls,
			emit.RecordDecoder(m.Name, fields),
			emit.RecordEncoder(m.Name, fields),
		)
	}

	decls = append(decls, elm.Section{Title: "PORTS"})
	for _, m := range stored {
		decls = append(decls, ports(m)...)
	}

	decls = append(decls, elm.Section{Title: "HELPERS"}, decodeStored())
	decls = append(decls, emit.EncodeHelpers()...)
	decls = append(decls, emit.DecodeHelpers()...)

	res := &emit.Result{Models: len(stored)}
	res.Add(
		emit.File{
			Location: emit.Location{Root: emit.RootElm, Path: ElmPath},
			Content: elm.Format(elm.Module{
				Name:    "Generated.Storage",
				Port:    true,
				Doc:     "Browser storage for UI state.\n\n" + emit.GeneratedNotice,
				Imports: emit.JSONImports(),
				Decls:   decls,
			}),
		},
		emit.File{
			Location: emit.Location{Root: emit.RootJS, Path: JSPath},
			Content:  browserStorage(stored),
		},
	)
	res.Diagnostics = mapper.Diagnostics()
	return res
}

// Port names for a stored model.
func portNames(m model.Classified) (save, load, clear, loaded, changed string) {
	lower := emit.LowerFirst(m.Name)
	return "storageSave" + m.Name, "storageLoad" + m.Name, "storageClear" + m.Name,
		lower + "Loaded", lower + "Changed"
}

func ports(m model.Classified) []elm.Decl {
	save, load, clear, loaded, changed := portNames(m)
	return []elm.Decl{
		elm.Port{Name: save, Type: "Encode.Value -> Cmd msg"},
		elm.Port{Name: load, Type: "() -> Cmd msg"},
		elm.Port{Name: clear, Type: "() -> Cmd msg"},
		elm.Port{Name: loaded, Type: "(Decode.Value -> msg) -> Sub msg"},
		elm.Port{Name: changed, Type: "(Decode.Value -> msg) -> Sub msg"},
	}
}

func operations(m model.Classified) []elm.Decl {
	save, load, clear, loaded, changed := portNames(m)
	name := m.Name
	value := emit.LowerFirst(name)
	subscribe := func(fname, port, doc string) elm.Func {
		return elm.Func{
			Doc:    doc,
			Name:   fname,
			Type:   "(Maybe " + name + " -> msg) -> Sub msg",
			Params: []string{"toMsg"},
			Body: elm.Call(port, elm.Op{
				Left:  elm.Call("decodeStored", elm.Ref(emit.DecoderName(name))),
				Op:    ">>",
				Right: elm.Ref("toMsg"),
			}),
		}
	}
	return []elm.Decl{
		elm.Func{
			Name:   "save" + name,
			Type:   name + " -> Cmd msg",
			Params: []string{value},
			Body:   elm.Call(save, elm.Call(emit.EncoderName(name), elm.Ref(value))),
		},
		elm.Func{
			Name: "load" + name,
			Type: "Cmd msg",
			Body: elm.Call(load, elm.Ref("()")),
		},
		elm.Func{
			Name: "clear" + name,
			Type: "Cmd msg",
			Body: elm.Call(clear, elm.Ref("()")),
		},
		subscribe("on"+name+"Loaded", loaded, "Answers load"+name+"; Nothing when nothing is stored"),
		subscribe("on"+name+"Changed", changed, ""),
	}
}

func decodeStored() elm.Decl {
	return elm.Func{
		Doc:    "Stored JSON that no longer decodes is treated as absent",
		Name:   "decodeStored",
		Type:   "Decode.Decoder a -> Decode.Value -> Maybe a",
		Params: []string{"decoder", "value"},
		Body: elm.Case{
			Subject: elm.Call("Decode.decodeValue", elm.Call("Decode.nullable", elm.Ref("decoder")), elm.Ref("value")),
			Branches: []elm.Branch{
				{Pattern: "Ok stored", Body: elm.Ref("stored")},
				{Pattern: "Err _", Body: elm.Ref("Nothing")},
			},
		},
	}
}
