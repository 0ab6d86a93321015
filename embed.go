package chatwidget

import "embed"

// TemplateFS contains the embedded HTML templates used for rendering the widget page and the partials
// pushed to the browser over SSE. Templates are split into layout, pages, and partials.
//
//go:embed templates/*
var TemplateFS embed.FS

// StaticFS contains the embedded static assets (the widget script and stylesheet).
//
//go:embed static/*
var StaticFS embed.FS
