package storage

import (
	"github.com/teranos/buildamp/emit"
	"github.com/teranos/buildamp/js"
	"github.com/teranos/buildamp/model"
)

func browserStorage(models []model.Classified) []byte {
	body := []js.Node{
		js.Raw{Text: "let elmApp = null;"},
		notify(),
	}
	for _, m := range models {
		body = append(body, storageClass(m))
	}
	body = append(body, connect(models))

	return js.Format(js.File{
		Header: []string{
			"localStorage classes behind Generated.Storage",
			"",
			emit.GeneratedNotice,
		},
		Body: body,
	})
}

func notify() js.Func {
	return js.Func{
		Name:   "notify",
		Params: []string{"port", "value"},
		Body: []js.Stmt{
			js.If{Cond: "elmApp && elmApp.ports && elmApp.ports[port]", Then: []js.Stmt{
				js.Do{X: js.Call("elmApp.ports[port].send", js.Code("value"))},
			}},
		},
	}
}

func storageClass(m model.Classified) js.Class {
	name := m.Name
	key := js.Str(Key(m))
	value := emit.LowerFirst(name)
	_, _, _, _, changed := portNames(m)

	guarded := func(what, fallback string, body ...js.Stmt) []js.Stmt {
		return []js.Stmt{js.Try{
			Body: body,
			Var:  "error",
			Catch: []js.Stmt{
				js.Do{X: js.Call("console.error", js.Str("Error "+what+" "+name+":"), js.Code("error"))},
				js.Return{Value: js.Code(fallback)},
			},
		}}
	}

	return js.Class{
		Doc:    []string{name + " in localStorage under " + js.Quote(Key(m))},
		Export: true,
		Name:   name + "Storage",
		Methods: []js.Method{
			{Static: true, Name: "save", Params: []string{value}, Body: guarded("saving", "false",
				js.Do{X: js.Call("localStorage.setItem", key, js.Call("JSON.stringify", js.Code(value)))},
				js.Do{X: js.Call("notify", js.Str(changed), js.Code(value))},
				js.Return{Value: js.Code("true")},
			)},
			{Static: true, Name: "load", Body: guarded("loading", "null",
				js.Var{Name: "data", Value: js.Call("localStorage.getItem", key)},
				js.Return{Value: js.Code("data ? JSON.parse(data) : null")},
			)},
			{Static: true, Name: "clear", Body: guarded("clearing", "false",
				js.Do{X: js.Call("localStorage.removeItem", key)},
				js.Do{X: js.Call("notify", js.Str(changed), js.Code("null"))},
				js.Return{Value: js.Code("true")},
			)},
			{Static: true, Name: "exists", Body: []js.Stmt{
				js.Return{Value: js.Code("localStorage.getItem(" + js.Quote(Key(m)) + ") !== null")},
			}},
			{Static: true, Name: "update", Params: []string{"updates"}, Body: []js.Stmt{
				js.Var{Name: "current", Value: js.Code("this.load()")},
				js.If{Cond: "!current", Then: []js.Stmt{js.Return{Value: js.Code("false")}}},
				js.Return{Value: js.Code("this.save({ ...current, ...updates })")},
			}},
		},
	}
}

// connect subscribes every storage port of an Elm app to its class.
func connect(models []model.Classified) js.Func {
	body := []js.Stmt{js.Do{X: js.Code("elmApp = app")}}
	for _, m := range models {
		save, load, clear, loaded, _ := portNames(m)
		class := m.Name + "Storage"
		body = append(body,
			js.Blank{},
			js.LineComment{Text: m.Name},
			subscribe(save, js.Arrow{Params: []string{"value"}, Body: []js.Stmt{
				js.Do{X: js.Call(class+".save", js.Code("value"))},
			}}),
			subscribe(load, js.Arrow{Body: []js.Stmt{
				js.Do{X: js.Call("notify", js.Str(loaded), js.Call(class+".load"))},
			}}),
			subscribe(clear, js.Arrow{Body: []js.Stmt{
				js.Do{X: js.Call(class + ".clear")},
			}}),
		)
	}
	return js.Func{
		Doc:    []string{"Wire Generated.Storage ports of an initialized Elm app"},
		Export: true,
		Name:   "connectStoragePorts",
		Params: []string{"app"},
		Body:   body,
	}
}

func subscribe(port string, handler js.Arrow) js.Stmt {
	return js.If{Cond: "app.ports." + port, Then: []js.Stmt{
		js.Do{X: js.Call("app.ports."+port+".subscribe", handler)},
	}}
}
