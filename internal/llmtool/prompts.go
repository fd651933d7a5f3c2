package llmtool

import "fmt"

func locationPrompt(raw string) string {
	return fmt.Sprintf(`You are a helpful assistant that takes messy or informal location input and converts it into a clean, globally recognized location string.

Respond ONLY with JSON in this format:
{
    "location": "Koramangala, Bengaluru, India",
    "ll": "12.9352,77.6245"
}

Input: "%s"`, raw)
}

func menuPrompt(restaurant, cuisineType string) string {
	return fmt.Sprintf(`You're an expert menu designer. Create a realistic and appealing menu for a restaurant named "%s".
Cuisine: %s
Generate 4-6 menu items. For each item, include:

- Dish name
- Short 1-line description
- Price (in USD, $5-$20)
- Category (e.g., Appetizer, Main Course, Dessert)

Respond in this format only:
Dish Name | Price | Category | Description

Example:
Margherita Pizza | $12.99 | Main Course | Classic tomato, mozzarella, and basil on sourdough crust.`, restaurant, cuisineType)
}

func cartExtractionPrompt(menuText, message string) string {
	return fmt.Sprintf(`You are an intelligent assistant that extracts food order items from customer messages.

Given a menu and a user message, return a structured JSON list of the items the user wants to add to their cart. Each item should include the dish name and quantity.

### Menu:
%s

### User message:
%s

### JSON Output format:
[
  {
    "item": "<dish name from the menu>",
    "quantity": <integer>
  },
  ...
]

Only include items from the menu. If none match, return an empty list.`, menuText, message)
}
