// Package js holds the JavaScript snippets evaluated in the page.
package js

// COUNT_ROWS returns the number of product cards currently rendered in
// the grid.
var COUNT_ROWS string = `
() => document.querySelectorAll('.grid > div').length
`

// EXTRACT_ROWS walks every product card in the grid and returns the raw
// field strings as stringified JSON. Each card has the product name in
// a colored header (div.h-12) and a details container (.p-3) whose
// text rows are labeled "ID:", "Price", "Mass (kg)" and "Score"; the
// value usually sits in the last span of the row. Fields that cannot
// be located are returned as empty strings so the Go side can decide
// what to skip.
var EXTRACT_ROWS string = `
() => {
    var rows = [];
    var cards = document.querySelectorAll('.grid > div');

    var lastSpan = function (el) {
        var spans = el.querySelectorAll('span');
        if (spans.length > 0) {
            return spans[spans.length - 1].textContent.trim();
        }
        return '';
    };

    cards.forEach(function (card) {
        var row = { id: '', name: '', price: '', mass_kg: '', score: '' };

        var nameDiv = card.querySelector('div.h-12');
        if (nameDiv) {
            row.name = nameDiv.textContent.trim();
        }

        var details = card.querySelector('.p-3');
        if (!details) {
            rows.push(row);
            return;
        }

        details.querySelectorAll('div.text-xs > div').forEach(function (div) {
            var text = div.textContent.trim();

            if (text.startsWith('ID:')) {
                row.id = lastSpan(div) || text.replace('ID:', '').trim();
            } else if (text.includes('Price')) {
                row.price = lastSpan(div) || text.replace('Price', '').trim();
            } else if (text.includes('Mass (kg)')) {
                row.mass_kg = lastSpan(div) || text.replace('Mass (kg)', '').trim();
            } else if (text.includes('Score')) {
                var scoreSpan = div.querySelector('span.ml-1');
                if (scoreSpan) {
                    row.score = scoreSpan.textContent.trim();
                } else {
                    row.score = lastSpan(div) || text.replace('Score', '').trim();
                }
            }
        });

        rows.push(row);
    });

    return JSON.stringify(rows);
}
`

// SCROLL_BOTTOM scrolls the document to its current bottom, which is
// what triggers the grid to load the next batch of cards.
var SCROLL_BOTTOM string = `
() => { window.scrollTo(0, document.body.scrollHeight); }
`